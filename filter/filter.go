package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Filter 判断一本候选书目是否应被剔除，true 表示剔除。
// 同一个 Filter 会被并发请求共享，请求相关的状态只能从 rctx 读取。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
