package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// RatedFilter 过滤掉用户已经评过分的书目（来自 rctx.Ratings）。
type RatedFilter struct{}

func NewRatedFilter() *RatedFilter {
	return &RatedFilter{}
}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

func (f *RatedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	// 单个用户的评分数量很小，线性扫描即可
	for _, r := range rctx.Ratings {
		if r.BookID == item.ID {
			return true, nil
		}
	}
	return false, nil
}
