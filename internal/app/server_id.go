package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateServerID 生成网关实例ID
// 优先使用环境变量 AKS_SERVER_ID，否则生成UUID
func GenerateServerID(name string) string {
	if serverID := os.Getenv("AKS_SERVER_ID"); serverID != "" {
		return serverID
	}
	if name == "" {
		name = "aks-gateway"
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("%s-%s-%s", name, hostname, shortUUID)
}
