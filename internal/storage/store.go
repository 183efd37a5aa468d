// Package storage 考勤与读卡器状态的持久化接口
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/taoyao-code/aks-gateway/internal/storage/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// DefaultListLimit 列表默认条数
const DefaultListLimit = 100

// AttendanceFilter 考勤查询条件，零值字段不参与过滤
type AttendanceFilter struct {
	Reader string
	CardID string
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// EffectiveLimit 返回 1..1000 范围内的条数
func (f AttendanceFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > 1000:
		return 1000
	}
	return f.Limit
}

// AttendanceStore 考勤写入与查询
type AttendanceStore interface {
	// RecordAttendance 按 EventID 幂等写入，重复时返回 false
	RecordAttendance(ctx context.Context, a *models.Attendance) (bool, error)
	ListAttendance(ctx context.Context, f AttendanceFilter) ([]models.Attendance, error)
}

// ReaderStateStore 读卡器状态快照
type ReaderStateStore interface {
	SaveReaderState(ctx context.Context, s *models.ReaderState) error
}

// Store 网关使用的全部持久化能力
type Store interface {
	AttendanceStore
	ReaderStateStore
}
