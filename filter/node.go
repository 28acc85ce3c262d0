package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// FilterNode 依次应用 Filters，任一 Filter 命中即剔除该书目，并在书目上记录 filtered 标签。
//
// 默认情况下 Filter 出错视为放行（例如黑名单存储暂时不可用）；
// Strict 为 true 时直接返回错误。
type FilterNode struct {
	Filters []Filter
	Strict  bool
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		reason, err := n.match(ctx, rctx, item)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			item.PutLabel(utils.LabelFiltered, utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// match 返回第一个命中的 Filter 名称，未命中时为空。
func (n *FilterNode) match(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (string, error) {
	for _, f := range n.Filters {
		hit, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			if n.Strict {
				return "", fmt.Errorf("%s on %s: %w", f.Name(), item.ID, err)
			}
			continue
		}
		if hit {
			return f.Name(), nil
		}
	}
	return "", nil
}
