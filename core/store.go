package core

import "context"

// Store 是最小的键值存储：BlacklistFilter 用它读取运营维护的书目黑名单。
// 实现见 store.MemoryStore、store.RedisStore。
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 写入 key；ttl 为可选的过期秒数，省略或 <= 0 表示不过期
	Set(ctx context.Context, key string, value []byte, ttl ...int) error
	Delete(ctx context.Context, key string) error
	// BatchGet 只返回存在的 key
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Close() error
}

// SortedSetStore 是有序集合操作。书目与评分按写入序号作为 score 保存，ZRange 升序返回。
type SortedSetStore interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZScore(ctx context.Context, key string, member string) (float64, error)
}

// HashStore 是哈希表操作，用于保存 (user, book) -> 评分。
type HashStore interface {
	HGet(ctx context.Context, key, field string) ([]byte, error)
	HSet(ctx context.Context, key, field string, value []byte) error
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)
}

// KeyValueStore 是 store.CatalogAdapter 所需的全部存储能力。
type KeyValueStore interface {
	Store
	SortedSetStore
	HashStore
}

// ErrStoreNotFound 表示 key、成员或字段不存在。
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

// IsStoreNotFound 判断是否为存储层的 NOT_FOUND。
// 与 IsNotFound 不同，它不会把 ErrBookNotFound 这类数据源错误算进来。
func IsStoreNotFound(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Module == ModuleStore && de.Code == ErrorCodeNotFound
}
