package models

import (
	"time"

	"github.com/google/uuid"
)

// 注意：
// - 与 internal/migrate/migrations 中的建表语句保持一致
// - 不使用 gorm.Model，显式声明每个字段

// Cardholder 映射 cardholders 表
type Cardholder struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CardID     string     `gorm:"column:card_id;type:varchar(16);not null;uniqueIndex"`
	Name       string     `gorm:"column:name;type:text;not null"`
	Disabled   bool       `gorm:"column:disabled;not null;default:false"`
	ValidUntil *time.Time `gorm:"column:valid_until"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cardholder) TableName() string { return "cardholders" }

// 考勤来源
const (
	SourceOnline  = "online"
	SourceOffline = "offline"
)

// Attendance 映射 attendance 表，EventID 唯一用于幂等写入
type Attendance struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EventID    uuid.UUID `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	Reader     string    `gorm:"column:reader;type:text;not null;index"`
	CardID     string    `gorm:"column:card_id;type:varchar(16);not null;index"`
	Port       string    `gorm:"column:port;type:varchar(4)"`
	Granted    bool      `gorm:"column:granted;not null"`
	Reason     string    `gorm:"column:reason;type:text"`
	Source     string    `gorm:"column:source;type:varchar(16);not null"`
	Extra      *string   `gorm:"column:extra;type:text"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Attendance) TableName() string { return "attendance" }

// ReaderState 映射 reader_states 表
type ReaderState struct {
	Name       string     `gorm:"column:name;primaryKey;type:text"`
	Endpoint   string     `gorm:"column:endpoint;type:text;not null"`
	Online     bool       `gorm:"column:online;not null"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`
	LastError  *string    `gorm:"column:last_error;type:text"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ReaderState) TableName() string { return "reader_states" }
