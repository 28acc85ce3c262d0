package recall

import (
	"sort"

	"github.com/rushteam/bookrec/core"
)

// FuseRankPositions 按名次融合多路有序列表。
//
// 第 k 路列表长度为 L，位于 i（从 0 开始）的物品得分 weights[k] × (L−i) / L，
// 同一物品在各路的得分相加，只出现在一路的物品只有那一路的得分。
// 这样各路的原始分数量纲不会互相压制。
//
// 结果按融合分降序；分数相同保持首次出现的顺序（先按列表顺序，再按名次）。
// 缺失的权重视为 0，空列表不贡献任何分数。
func FuseRankPositions(lists [][]string, weights []float64) []core.ScoredID {
	pos := make(map[string]int)
	fused := make([]core.ScoredID, 0)
	for k, list := range lists {
		l := len(list)
		if l == 0 {
			continue
		}
		w := 0.0
		if k < len(weights) {
			w = weights[k]
		}
		for i, id := range list {
			p, ok := pos[id]
			if !ok {
				p = len(fused)
				pos[id] = p
				fused = append(fused, core.ScoredID{ID: id})
			}
			fused[p].Score += w * float64(l-i) / float64(l)
		}
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}
