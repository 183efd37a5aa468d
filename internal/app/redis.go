package app

import (
	"context"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/gateway"
	redisstorage "github.com/taoyao-code/aks-gateway/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端，未启用时返回 nil
func NewRedisClient(ctx context.Context, cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}

	client, err := redisstorage.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))

	return client, nil
}

// NewDeduper 刷卡去重：有 Redis 时跨实例共享，否则进程内；窗口为 0 时不去重
func NewDeduper(client *redisstorage.Client, cfg cfgpkg.GatewayConfig, logger *zap.Logger) gateway.Deduper {
	if client == nil || cfg.DedupWindow <= 0 {
		return gateway.NewLocalDeduper(cfg.DedupWindow)
	}
	return redisstorage.NewSwipeDeduper(client.Client, cfg.DedupWindow, logger)
}
