package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rushteam/bookrec/core"
)

// Pipeline 把推荐逻辑拆成顺序执行的 Node 链。
// 内置混合推荐为 Fanout(cf, content) → Filter(rated) → TopN。
//
// Pipeline 构建后只读，可被多个请求并发 Run。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行各节点。每个节点执行前检查 ctx，
// 每个节点的输入输出数量与耗时追加到 rctx.Trace。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", node.Kind(), node.Name(), err)
		}
		if rctx != nil {
			rctx.Trace = append(rctx.Trace, core.NodeTrace{
				Node:     node.Name(),
				Kind:     string(node.Kind()),
				In:       len(cur),
				Out:      len(next),
				Duration: time.Since(start),
			})
		}
		cur = next
	}
	return cur, nil
}

// String 返回节点链，例如 "hybrid: recall.fanout -> filter -> rerank.topn"。
func (p *Pipeline) String() string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name()
	}
	chain := strings.Join(names, " -> ")
	if p.Name == "" {
		return chain
	}
	return p.Name + ": " + chain
}
