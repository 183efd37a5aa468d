package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/migrate"
	pgstorage "github.com/taoyao-code/aks-gateway/internal/storage/pg"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行迁移，未启用时返回 nil
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	if !cfg.Enabled {
		log.Info("database is disabled, skipping initialization")
		return nil, nil
	}
	dbpool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, err
	}
	if cfg.AutoMigrate {
		n, err := (migrate.Runner{FS: migrate.Embedded(), Logger: log}).Up(ctx, dbpool)
		if err != nil {
			log.Error("db migrate error", zap.Error(err))
			return dbpool, err
		}
		log.Info("db migrations applied", zap.Int("count", n))
	}
	return dbpool, nil
}
