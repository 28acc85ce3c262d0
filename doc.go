// Package bookrec 是一个混合图书推荐引擎。
//
// 设计要点：
// - 基于用户的协同过滤 + TF-IDF 内容相似度，按名次融合（rank-position fusion）
// - Pipeline-first: 混合推荐即 Fanout(cf, content) → Filter(rated) → TopN，可由 YAML 配置
// - 模型不可变：训练产出新的 engine.Model 并原子替换，查询并发读取
// - Labels-first: recall_source 等标签全链路透传，便于 explain / 观测
package bookrec

import (
	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/pipeline"
)

// 轻量 facade：便于用户直接 import "bookrec" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
	Engine   = engine.Engine
	Config   = engine.Config
)

const (
	KindRecall  = pipeline.KindRecall
	KindFeature = pipeline.KindFeature
	KindFilter  = pipeline.KindFilter
	KindReRank  = pipeline.KindReRank
)

// New 是 engine.New 的别名。
var New = engine.New

// DefaultConfig 是 engine.DefaultConfig 的别名。
var DefaultConfig = engine.DefaultConfig
