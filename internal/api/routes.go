package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/api/middleware"
	"github.com/taoyao-code/aks-gateway/internal/config"
)

// RegisterRoutes 注册 /api 路由组
func RegisterRoutes(r gin.IRouter, h *Handler, authCfg config.AuthConfig, logger *zap.Logger) {
	if r == nil || h == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api := r.Group("/api")
	api.Use(middleware.RequestID())
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	// 读卡器
	api.GET("/readers", h.ListReaders)
	api.GET("/readers/:name", h.GetReader)
	api.GET("/readers/:name/clock", h.GetClock)
	api.PUT("/readers/:name/clock", h.SetClock)
	api.GET("/readers/:name/counts", h.Counts)
	api.POST("/readers/:name/commands", h.SendCommand)
	api.POST("/readers/:name/access", h.Access)

	// 考勤
	api.GET("/attendance", h.ListAttendance)
}
