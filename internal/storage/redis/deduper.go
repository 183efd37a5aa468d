package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	swipeKeyPrefix = keyPrefix + "swipe:"

	// DefaultDedupWindow 默认去重窗口
	DefaultDedupWindow = 3 * time.Second
)

// SwipeDeduper 同一读卡器同一卡号在窗口内只处理一次（基于 SETNX）
type SwipeDeduper struct {
	rdb    *redis.Client
	window time.Duration
	logger *zap.Logger
}

func NewSwipeDeduper(rdb *redis.Client, window time.Duration, logger *zap.Logger) *SwipeDeduper {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwipeDeduper{rdb: rdb, window: window, logger: logger}
}

// Seen 返回 true 表示窗口内已出现过
func (d *SwipeDeduper) Seen(ctx context.Context, reader, cardID string) (bool, error) {
	if d == nil || d.rdb == nil {
		return false, errors.New("deduper not initialized")
	}
	if cardID == "" {
		return false, errors.New("card id is empty")
	}
	key := d.key(reader, cardID)
	first, err := d.rdb.SetNX(ctx, key, "1", d.window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !first {
		d.logger.Debug("duplicate swipe", zap.String("reader", reader), zap.String("card", cardID))
	}
	return !first, nil
}

// Forget 清除标记
func (d *SwipeDeduper) Forget(ctx context.Context, reader, cardID string) error {
	return d.rdb.Del(ctx, d.key(reader, cardID)).Err()
}

func (d *SwipeDeduper) key(reader, cardID string) string {
	return swipeKeyPrefix + reader + ":" + cardID
}
