package app

import (
	"github.com/taoyao-code/aks-gateway/internal/storage"
	"github.com/taoyao-code/aks-gateway/internal/storage/gormrepo"
)

// memoryCapacity 无数据库时内存中保留的考勤条数
const memoryCapacity = 10000

// NewStore 有数据库时写入 PostgreSQL，否则保存在内存
func NewStore(repo *gormrepo.Repository) storage.Store {
	if repo == nil {
		return storage.NewMemory(memoryCapacity)
	}
	return repo
}
