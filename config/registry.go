package config

import (
	"sort"
	"sync"

	"github.com/rushteam/bookrec/pipeline"
)

// 节点注册表。内置节点在 config/builders 的 init 中注册；
// 依赖引擎的节点（recall.hybrid 等）由 builders.RegisterEngine 注册。

var (
	registryMu sync.RWMutex
	registry   = make(map[string]pipeline.NodeBuilder)
)

// Register 注册一种节点类型，重复注册时后者覆盖前者。
func Register(typeName string, builder pipeline.NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = builder
}

// SupportedTypes 返回已注册的节点类型（排序）。
func SupportedTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回当前注册表的快照。
func DefaultFactory() *pipeline.NodeFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range registry {
		f.Register(typeName, builder)
	}
	return f
}

// LoadPipeline 读取 Pipeline 配置文件并用注册表构建。
func LoadPipeline(path string) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory())
}
