package recall

import (
	"sort"

	"github.com/rushteam/bookrec/core"
)

// MergeStrategy 定义 Fanout 合并多路召回结果的方式。
// groups[i] 是第 i 个召回源的有序结果。
type MergeStrategy interface {
	Name() string
	Merge(groups [][]*core.Item, dedup bool) []*core.Item
}

// FirstMergeStrategy 按召回源顺序拼接，dedup 时按 ID 去重，保留第一个出现的并合并 labels（默认策略）。
type FirstMergeStrategy struct{}

func (s *FirstMergeStrategy) Name() string { return "first" }

func (s *FirstMergeStrategy) Merge(groups [][]*core.Item, dedup bool) []*core.Item {
	return concat(groups, dedup)
}

// UnionMergeStrategy 合并所有结果，不去重（用于需要保留所有来源的场景）。
type UnionMergeStrategy struct{}

func (s *UnionMergeStrategy) Name() string { return "union" }

func (s *UnionMergeStrategy) Merge(groups [][]*core.Item, _ bool) []*core.Item {
	return concat(groups, false)
}

// PriorityMergeStrategy 按优先级合并：召回源下标越小优先级越高，
// 同一召回源内按 Score 降序；相同 ID 时保留优先级更高的。
type PriorityMergeStrategy struct{}

func (s *PriorityMergeStrategy) Name() string { return "priority" }

func (s *PriorityMergeStrategy) Merge(groups [][]*core.Item, dedup bool) []*core.Item {
	sorted := make([][]*core.Item, len(groups))
	for i, g := range groups {
		cp := append([]*core.Item(nil), g...)
		sort.SliceStable(cp, func(a, b int) bool {
			return cp[a].Score > cp[b].Score
		})
		sorted[i] = cp
	}
	return concat(sorted, dedup)
}

// RankPositionMergeStrategy 是混合推荐的融合策略：按名次加权融合多路召回。
//
// Weights[i] 是第 i 个召回源的权重（例如协同过滤 alpha、内容 1-alpha）。
// 输出按融合分降序，Item.Score 与 Features["fusion_score"] 为融合分；
// 该策略总是按 ID 去重。TopN > 0 时截断。
type RankPositionMergeStrategy struct {
	Weights []float64
	TopN    int
}

func (s *RankPositionMergeStrategy) Name() string { return "rank_position" }

func (s *RankPositionMergeStrategy) Merge(groups [][]*core.Item, _ bool) []*core.Item {
	lists := make([][]string, len(groups))
	byID := make(map[string]*core.Item)
	for i, g := range groups {
		lists[i] = make([]string, 0, len(g))
		for _, it := range g {
			if it == nil {
				continue
			}
			lists[i] = append(lists[i], it.ID)
			if old, ok := byID[it.ID]; ok {
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			byID[it.ID] = it
		}
	}

	fused := FuseRankPositions(lists, s.Weights)
	if s.TopN > 0 && len(fused) > s.TopN {
		fused = fused[:s.TopN]
	}

	out := make([]*core.Item, 0, len(fused))
	for _, f := range fused {
		it := byID[f.ID]
		it.Score = f.Score
		it.PutFeature("fusion_score", f.Score)
		out = append(out, it)
	}
	return out
}

func concat(groups [][]*core.Item, dedup bool) []*core.Item {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	out := make([]*core.Item, 0, total)
	seen := make(map[string]*core.Item, total)
	for _, g := range groups {
		for _, it := range g {
			if it == nil {
				continue
			}
			if dedup {
				if old, ok := seen[it.ID]; ok {
					for k, v := range it.Labels {
						old.PutLabel(k, v)
					}
					continue
				}
				seen[it.ID] = it
			}
			out = append(out, it)
		}
	}
	return out
}
