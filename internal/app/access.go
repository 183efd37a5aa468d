package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/access"
	cfgpkg "github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/storage/gormrepo"
	redisstorage "github.com/taoyao-code/aks-gateway/internal/storage/redis"
)

// NewDirectory 按 access.source 构建持卡人目录，有 Redis 时叠加缓存
func NewDirectory(
	ctx context.Context,
	cfg cfgpkg.AccessConfig,
	repo *gormrepo.Repository,
	rdb *redisstorage.Client,
	log *zap.Logger,
) (access.Directory, error) {
	var seed []access.Cardholder
	if cfg.SeedFile != "" {
		var err error
		if seed, err = access.LoadCardholders(cfg.SeedFile); err != nil {
			return nil, err
		}
		log.Info("cardholders loaded", zap.String("path", cfg.SeedFile), zap.Int("count", len(seed)))
	}

	var dir access.Directory
	switch cfg.Source {
	case cfgpkg.AccessSourceMemory, cfgpkg.AccessSourceYAML:
		dir = access.NewMemoryDirectory(seed...)
	case cfgpkg.AccessSourceDatabase:
		if repo == nil {
			return nil, errors.New("access: database source requires a database connection")
		}
		if len(seed) > 0 {
			if err := repo.SeedCardholders(ctx, seed); err != nil {
				return nil, fmt.Errorf("access: seed cardholders: %w", err)
			}
		}
		dir = repo
	default:
		return nil, fmt.Errorf("access: unsupported source %q", cfg.Source)
	}

	if rdb != nil && cfg.Source == cfgpkg.AccessSourceDatabase {
		log.Info("cardholder cache enabled", zap.Duration("ttl", cfg.CacheTTL))
		return redisstorage.NewCachedDirectory(dir, rdb.Client, cfg.CacheTTL, log), nil
	}
	return dir, nil
}
