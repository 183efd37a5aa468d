package gormrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/aks-gateway/internal/access"
	"github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/migrate"
	"github.com/taoyao-code/aks-gateway/internal/storage"
	"github.com/taoyao-code/aks-gateway/internal/storage/models"
	"github.com/taoyao-code/aks-gateway/internal/storage/pg"
)

// 需要 PostgreSQL，通过 AKS_TEST_DSN 指定，未设置时跳过
func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("AKS_TEST_DSN")
	if dsn == "" {
		t.Skip("AKS_TEST_DSN 未设置，跳过数据库测试")
	}
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, config.DatabaseConfig{Enabled: true, DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = migrate.Runner{}.Up(ctx, pool)
	require.NoError(t, err)

	db, err := Open(pool)
	require.NoError(t, err)
	require.NoError(t, db.Exec("TRUNCATE cardholders, attendance, reader_states").Error)
	return New(db)
}

func TestRepository_Cardholders(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	until := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.SeedCardholders(ctx, []access.Cardholder{
		{CardID: "ecab2979", Name: "CAN CAKAR"},
		{CardID: "005DA58C", Name: "Guest", ValidUntil: &until},
	}))

	h, err := repo.Lookup(ctx, "ECAB2979")
	require.NoError(t, err)
	assert.Equal(t, "CAN CAKAR", h.Name)

	// 再次写入同卡号为更新
	require.NoError(t, repo.UpsertCardholder(ctx, &models.Cardholder{CardID: "ECAB2979", Name: "Renamed", Disabled: true}))
	h, err = repo.Lookup(ctx, "ecab2979")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", h.Name)
	assert.True(t, h.Disabled)

	list, err := repo.ListCardholders(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.DeleteCardholder(ctx, "ECAB2979"))
	_, err = repo.Lookup(ctx, "ECAB2979")
	assert.ErrorIs(t, err, access.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteCardholder(ctx, "ECAB2979"), storage.ErrNotFound)
}

func TestRepository_Attendance(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	id := uuid.New()
	at := time.Now().UTC().Truncate(time.Second)
	a := &models.Attendance{EventID: id, Reader: "door1", CardID: "ECAB2979", Granted: true, Source: models.SourceOnline, OccurredAt: at}
	ok, err := repo.RecordAttendance(ctx, a)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RecordAttendance(ctx, &models.Attendance{EventID: id, Reader: "door1", CardID: "ECAB2979", Source: models.SourceOnline, OccurredAt: at})
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.ListAttendance(ctx, storage.AttendanceFilter{Reader: "door1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].EventID)
}

func TestRepository_SaveReaderState(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	s := &models.ReaderState{Name: "door1", Endpoint: "tcp://10.0.0.5:1001", Online: true}
	require.NoError(t, repo.SaveReaderState(ctx, s))
	s.Online = false
	require.NoError(t, repo.SaveReaderState(ctx, s))

	var got models.ReaderState
	require.NoError(t, repo.db.Where("name = ?", "door1").First(&got).Error)
	assert.False(t, got.Online)
}
