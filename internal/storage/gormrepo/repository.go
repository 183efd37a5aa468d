package gormrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taoyao-code/aks-gateway/internal/access"
	"github.com/taoyao-code/aks-gateway/internal/storage"
	"github.com/taoyao-code/aks-gateway/internal/storage/models"
)

// Open 在现有 pgx 连接池上打开 GORM
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// Repository 基于 GORM 的持久化实现。
// 使用 isTx 标记区分事务上下文，避免嵌套事务重复 Begin/Commit。
type Repository struct {
	db   *gorm.DB
	isTx bool
}

var (
	_ storage.Store    = (*Repository)(nil)
	_ access.Directory = (*Repository)(nil)
)

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx 复用现有事务或开启新事务执行 fn。
func (r *Repository) WithTx(ctx context.Context, fn func(*Repository) error) error {
	if r.isTx {
		return fn(r)
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	child := &Repository{db: tx, isTx: true}
	if err := fn(child); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// Lookup 实现 access.Directory
func (r *Repository) Lookup(ctx context.Context, cardID string) (*access.Cardholder, error) {
	row, err := r.GetCardholder(ctx, cardID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, access.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &access.Cardholder{
		CardID:     row.CardID,
		Name:       row.Name,
		Disabled:   row.Disabled,
		ValidUntil: row.ValidUntil,
	}, nil
}

// GetCardholder 按卡号查询
func (r *Repository) GetCardholder(ctx context.Context, cardID string) (*models.Cardholder, error) {
	var row models.Cardholder
	err := r.db.WithContext(ctx).Where("card_id = ?", access.NormalizeCardID(cardID)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertCardholder 按卡号插入或更新
func (r *Repository) UpsertCardholder(ctx context.Context, c *models.Cardholder) error {
	c.CardID = access.NormalizeCardID(c.CardID)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "card_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"name":        c.Name,
				"disabled":    c.Disabled,
				"valid_until": c.ValidUntil,
				"updated_at":  gorm.Expr("NOW()"),
			}),
		}).
		Create(c).Error
}

// SeedCardholders 在一个事务中导入种子数据
func (r *Repository) SeedCardholders(ctx context.Context, holders []access.Cardholder) error {
	return r.WithTx(ctx, func(tx *Repository) error {
		for _, h := range holders {
			row := &models.Cardholder{CardID: h.CardID, Name: h.Name, Disabled: h.Disabled, ValidUntil: h.ValidUntil}
			if err := tx.UpsertCardholder(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteCardholder 删除持卡人，不存在时返回 storage.ErrNotFound
func (r *Repository) DeleteCardholder(ctx context.Context, cardID string) error {
	res := r.db.WithContext(ctx).Where("card_id = ?", access.NormalizeCardID(cardID)).Delete(&models.Cardholder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListCardholders 分页列出持卡人
func (r *Repository) ListCardholders(ctx context.Context, limit, offset int) ([]models.Cardholder, error) {
	var rows []models.Cardholder
	q := r.db.WithContext(ctx).Order("card_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RecordAttendance event_id 冲突时不写入
func (r *Repository) RecordAttendance(ctx context.Context, a *models.Attendance) (bool, error) {
	if a.EventID == uuid.Nil {
		a.EventID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListAttendance 按发生时间倒序
func (r *Repository) ListAttendance(ctx context.Context, f storage.AttendanceFilter) ([]models.Attendance, error) {
	q := r.db.WithContext(ctx).Model(&models.Attendance{})
	if f.Reader != "" {
		q = q.Where("reader = ?", f.Reader)
	}
	if f.CardID != "" {
		q = q.Where("card_id = ?", f.CardID)
	}
	if !f.Since.IsZero() {
		q = q.Where("occurred_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("occurred_at < ?", f.Until)
	}
	var rows []models.Attendance
	err := q.Order("occurred_at DESC").Limit(f.EffectiveLimit()).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveReaderState 按名称插入或覆盖
func (r *Repository) SaveReaderState(ctx context.Context, s *models.ReaderState) error {
	s.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"endpoint", "online", "last_seen_at", "last_error", "updated_at"}),
		}).
		Create(s).Error
}
