package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，放在融合与过滤之后，
// 保证过滤掉已评分书目后仍能凑满 N 条。
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Fanout{...},                    // 协同 + 内容，按名次融合
//	        &filter.FilterNode{...},                // 去掉已评分
//	        &rerank.TopNNode{N: 10},                // 截取 Top 10
//	    },
//	}
type TopNNode struct {
	// N <= 0 时不截断；N 优先从 rctx.Params["n"] 读取
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if rctx != nil && rctx.Params != nil {
		if v, ok := rctx.Params["n"].(int); ok && v > 0 {
			limit = v
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
