package core

import "github.com/rushteam/bookrec/pkg/utils"

// Item 是 Pipeline 中流转的候选书目。
//
// Score 是当前阶段的排序分（召回得分、融合得分），不会出现在最终结果中；
// Features / Meta 由 feature.EnrichNode 与融合节点填充，供 CEL 过滤与多样性重排读取；
// Labels 记录来源与处理过程（recall_source、filtered ...）。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

// NewItem 创建候选书目，map 在第一次写入时分配。
func NewItem(id string) *Item {
	return &Item{ID: id}
}

// PutLabel 写入 Label，同名 key 按 utils.MergeLabel 累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		lbl = utils.MergeLabel(old, lbl)
	}
	it.Labels[key] = lbl
}

func (it *Item) PutFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// PutBookMeta 把书目字段写入 Meta（year 为 int64，便于 CEL 比较）。
func (it *Item) PutBookMeta(b *Book) {
	if b == nil {
		return
	}
	if it.Meta == nil {
		it.Meta = make(map[string]any, 5)
	}
	it.Meta["title"] = b.Title
	it.Meta["author"] = b.Author
	it.Meta["genre"] = b.Genre
	it.Meta["year"] = int64(b.Year)
	it.Meta["average_rating"] = b.AverageRating
}
