package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/access"
)

const (
	cardholderKeyPrefix = keyPrefix + "cardholder:"
	// missMarker 缓存未登记卡号，避免反复查库
	missMarker = "-"

	DefaultCacheTTL = 5 * time.Minute
)

// CachedDirectory 为下层目录加一层 redis 缓存，redis 故障时直接回源
type CachedDirectory struct {
	next    access.Directory
	rdb     *redis.Client
	ttl     time.Duration
	missTTL time.Duration
	logger  *zap.Logger
}

func NewCachedDirectory(next access.Directory, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDirectory{next: next, rdb: rdb, ttl: ttl, missTTL: ttl / 5, logger: logger}
}

func (d *CachedDirectory) Lookup(ctx context.Context, cardID string) (*access.Cardholder, error) {
	key := cardholderKeyPrefix + access.NormalizeCardID(cardID)

	raw, err := d.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == missMarker {
			return nil, access.ErrNotFound
		}
		var h access.Cardholder
		if jerr := json.Unmarshal([]byte(raw), &h); jerr == nil {
			return &h, nil
		}
		d.logger.Warn("drop corrupt cardholder cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		d.logger.Warn("cardholder cache get failed", zap.String("key", key), zap.Error(err))
	}

	h, err := d.next.Lookup(ctx, cardID)
	switch {
	case errors.Is(err, access.ErrNotFound):
		d.set(ctx, key, missMarker, d.missTTL)
		return nil, err
	case err != nil:
		return nil, err
	}
	if b, jerr := json.Marshal(h); jerr == nil {
		d.set(ctx, key, string(b), d.ttl)
	}
	return h, nil
}

// Invalidate 持卡人变更后清除缓存
func (d *CachedDirectory) Invalidate(ctx context.Context, cardID string) error {
	return d.rdb.Del(ctx, cardholderKeyPrefix+access.NormalizeCardID(cardID)).Err()
}

func (d *CachedDirectory) set(ctx context.Context, key, val string, ttl time.Duration) {
	if err := d.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		d.logger.Warn("cardholder cache set failed", zap.String("key", key), zap.Error(err))
	}
}
