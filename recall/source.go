package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Source 表示一个可复用的召回源（协同过滤 / 内容 / ...）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// scoredToItems 把有序的 ScoredID 列表封装为 Item，并打上召回来源标签。
func scoredToItems(scored []core.ScoredID, source string) []*core.Item {
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.PutLabel(utils.LabelRecallSource, utils.Label{Value: source, Source: "recall"})
		out = append(out, it)
	}
	return out
}
