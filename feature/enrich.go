package feature

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// EnrichNode 是特征注入节点：按 ID 读取书目记录，写入 Meta 与数值特征，
// 供后续的 filter.expr（book.genre / book.year）与 rerank.diversity 使用。
//
// 写入的特征（前缀默认 "item_"）：
//   - {prefix}average_rating
//   - {prefix}year
//
// 另外写入 genre 标签。数据源中已不存在的书目保留原样，不写任何信息。
type EnrichNode struct {
	Source core.DataSource

	// ItemFeaturePrefix 为空时使用 "item_"
	ItemFeaturePrefix string

	// DropMissing 为 true 时丢弃数据源中找不到的书目
	DropMissing bool
}

func (n *EnrichNode) Name() string {
	return "feature.enrich"
}

func (n *EnrichNode) Kind() pipeline.Kind {
	return pipeline.KindFeature
}

func (n *EnrichNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || n.Source == nil {
		return items, nil
	}
	prefix := n.ItemFeaturePrefix
	if prefix == "" {
		prefix = "item_"
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		b, err := n.Source.ItemByID(ctx, it.ID)
		if err != nil {
			if !core.IsNotFound(err) {
				return nil, fmt.Errorf("enrich %s: %w", it.ID, err)
			}
			if !n.DropMissing {
				out = append(out, it)
			}
			continue
		}
		it.PutBookMeta(b)
		it.PutFeature(prefix+"average_rating", b.AverageRating)
		it.PutFeature(prefix+"year", float64(b.Year))
		if b.Genre != "" {
			it.PutLabel(utils.LabelGenre, utils.Label{Value: b.Genre, Source: "feature"})
		}
		it.PutLabel(utils.LabelEnriched, utils.Label{Value: "true", Source: n.Source.Name()})
		out = append(out, it)
	}
	return out, nil
}
