package main

import (
	"go.uber.org/zap"

	_ "github.com/taoyao-code/aks-gateway/docs"
	"github.com/taoyao-code/aks-gateway/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/logging"
)

// @title AKS Gateway API
// @version 1.0
// @description AKS 门禁读卡器网关接口
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	// 1) 加载配置（AKS_CONFIG 或 configs/example.yaml）
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动
	if err := bootstrap.Run(cfg, logger); err != nil {
		logger.Fatal("aks gateway exited", zap.Error(err))
	}
}
