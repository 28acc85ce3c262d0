package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// Diversity 按类别打散：每个类别最多保留 MaxPerGroup 本，超出的顺延到末尾。
// 类别来源优先级：
// - label[Key].Value
// - meta[Key] (string)，默认 Key 为 "genre"
type Diversity struct {
	Key         string
	MaxPerGroup int // 默认 1
	// DropOverflow 为 true 时直接丢弃超出的书目，否则按原顺序追加到末尾
	DropOverflow bool
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = "genre"
	}
	maxPer := n.MaxPerGroup
	if maxPer <= 0 {
		maxPer = 1
	}

	seen := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		group := groupOf(it, key)
		if group == "" {
			out = append(out, it)
			continue
		}
		if seen[group] >= maxPer {
			overflow = append(overflow, it)
			continue
		}
		seen[group]++
		out = append(out, it)
	}

	if !n.DropOverflow {
		out = append(out, overflow...)
	}
	return out, nil
}

func groupOf(it *core.Item, key string) string {
	if it.Labels != nil {
		if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
			return lbl.Value
		}
	}
	if it.Meta != nil {
		if s, ok := it.Meta[key].(string); ok {
			return s
		}
	}
	return ""
}
