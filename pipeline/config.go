package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 Pipeline 的文件格式（YAML 或 JSON）：
//
//	pipeline:
//	  name: hybrid
//	  nodes:
//	    - type: recall.hybrid
//	      config: {alpha: 0.6}
//	    - type: filter.rated
//	    - type: rerank.topn
//	      config: {n: 10}
type Config struct {
	Pipeline struct {
		Name  string       `yaml:"name" json:"name"`
		Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
	} `yaml:"pipeline" json:"pipeline"`
}

// NodeConfig 是单个节点的配置；Config 的内容由对应的 NodeBuilder 解释。
type NodeConfig struct {
	Type   string         `yaml:"type" json:"type"`
	Config map[string]any `yaml:"config" json:"config"`
}

// Load 读取 Pipeline 配置文件，按扩展名选择格式（.json 为 JSON，其余按 YAML）。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse 解析并校验 Pipeline 配置，format 为 "yaml" 或 "json"。
func Parse(data []byte, format string) (*Config, error) {
	var cfg Config
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported pipeline config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 要求至少一个节点，且每个节点都有 type。
func (c *Config) Validate() error {
	if len(c.Pipeline.Nodes) == 0 {
		return fmt.Errorf("pipeline has no nodes")
	}
	for i, nc := range c.Pipeline.Nodes {
		if nc.Type == "" {
			return fmt.Errorf("node[%d]: type is required", i)
		}
	}
	return nil
}

// BuildPipeline 用 factory 逐个构建节点。
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	nodes := make([]Node, 0, len(c.Pipeline.Nodes))
	for i, nc := range c.Pipeline.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("node[%d] %s: %w", i, nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return &Pipeline{Name: c.Pipeline.Name, Nodes: nodes}, nil
}

// NodeBuilder 根据节点配置构建 Node。
type NodeBuilder func(map[string]any) (Node, error)

// NodeFactory 按节点类型查找 NodeBuilder。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{builders: make(map[string]NodeBuilder)}
}

func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Types 返回已注册的节点类型（排序）。
func (f *NodeFactory) Types() []string {
	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (f *NodeFactory) Build(nodeType string, config map[string]any) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q (supported: %s)", nodeType, strings.Join(f.Types(), ", "))
	}
	return builder(config)
}
