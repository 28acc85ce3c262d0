package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/bookrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉下架或屏蔽的书目。
type BlacklistFilter struct {
	// BookIDs 是内存中的黑名单
	BookIDs []string

	// Store 用于从存储中读取黑名单（可选），值为 JSON 字符串数组
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(bookIDs []string, s core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{
		BookIDs: bookIDs,
		Store:   s,
		Key:     key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.BookIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		blacklist, err := f.load(ctx)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		for _, id := range blacklist {
			if item.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *BlacklistFilter) load(ctx context.Context) ([]string, error) {
	data, err := f.Store.Get(ctx, f.Key)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
