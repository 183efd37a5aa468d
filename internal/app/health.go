package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/aks-gateway/internal/health"
	"github.com/taoyao-code/aks-gateway/internal/registry"
	redisstorage "github.com/taoyao-code/aks-gateway/internal/storage/redis"
)

// NewHealthAggregator 创建健康检查聚合器，未启用的依赖不参与检查
func NewHealthAggregator(ready *health.Readiness, reg *registry.Registry, dbpool *pgxpool.Pool, rdb *redisstorage.Client) *health.Aggregator {
	agg := health.NewAggregator(ready, health.NewReaderChecker(reg))
	if dbpool != nil {
		agg.AddChecker(health.NewDatabaseChecker(dbpool))
	}
	if rdb != nil {
		agg.AddChecker(health.NewRedisChecker(rdb))
	}
	return agg
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
