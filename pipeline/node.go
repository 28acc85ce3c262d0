package pipeline

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Kind 标记 Node 所处阶段，用于链路追踪与日志。
type Kind string

const (
	KindRecall  Kind = "recall"  // 生成候选书目（协同过滤 / 内容 / 融合）
	KindFeature Kind = "feature" // 为候选补充书目字段
	KindFilter  Kind = "filter"  // 剔除已评分或命中规则的书目
	KindReRank  Kind = "rerank"  // 多样性调整与截断
)

// Node 是 Pipeline 的最小单元：输入候选书目，输出新的候选书目。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeFunc 把函数包装为 Node，适合一次性的规则节点。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

func (n *NodeFunc) Name() string { return n.NodeName }
func (n *NodeFunc) Kind() Kind   { return n.NodeKind }

func (n *NodeFunc) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.Fn(ctx, rctx, items)
}
