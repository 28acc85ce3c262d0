package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rushteam/bookrec/core"
)

// RedisOptions 是 RedisStore 的连接参数。
type RedisOptions struct {
	Addr     string `yaml:"addr" koanf:"addr"`
	Password string `yaml:"password" koanf:"password"`
	DB       int    `yaml:"db" koanf:"db"`
}

// RedisStore 是 Redis 实现的 KeyValueStore，多实例部署时共享书目与评分。
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore 建立连接并 Ping 一次，连接失败时返回 UNAVAILABLE。
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: redis unavailable at "+opts.Addr).WithCause(err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient 使用已有客户端（集群 / 哨兵）。
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Name() string { return "redis" }

// wrap 把 redis.Nil 转换为 core.ErrStoreNotFound，其余错误附带命令与 key。
func wrap(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return core.ErrStoreNotFound
	default:
		return fmt.Errorf("redis %s %s: %w", op, key, err)
	}
}

func expiration(ttl []int) time.Duration {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Duration(ttl[0]) * time.Second
	}
	return 0
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	return val, wrap("GET", key, err)
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return wrap("SET", key, r.client.Set(ctx, key, value, expiration(ttl)).Err())
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return wrap("DEL", key, r.client.Del(ctx, key).Err())
}

// BatchGet 用一次 MGET 读取书目记录，缺失的 key 不出现在结果中。
func (r *RedisStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis MGET (%d keys): %w", len(keys), err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			result[keys[i]] = []byte(s)
		}
	}
	return result, nil
}

// BatchSet 在一个 pipeline 中写入多个 key。
func (r *RedisStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	if len(kvs) == 0 {
		return nil
	}
	exp := expiration(ttl)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range kvs {
			pipe.Set(ctx, k, v, exp)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis pipeline SET (%d keys): %w", len(kvs), err)
	}
	return nil
}

func (r *RedisStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return wrap("ZADD", key, r.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err())
}

// ZRange 按 score 升序返回下标 [start, stop] 的成员，stop = -1 表示到末尾。
func (r *RedisStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	members, err := r.client.ZRange(ctx, key, start, stop).Result()
	return members, wrap("ZRANGE", key, err)
}

func (r *RedisStore) ZScore(ctx context.Context, key string, member string) (float64, error) {
	score, err := r.client.ZScore(ctx, key, member).Result()
	return score, wrap("ZSCORE", key, err)
}

func (r *RedisStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	val, err := r.client.HGet(ctx, key, field).Bytes()
	return val, wrap("HGET", key, err)
}

func (r *RedisStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return wrap("HSET", key, r.client.HSet(ctx, key, field, value).Err())
}

func (r *RedisStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	vals, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, wrap("HGETALL", key, err)
	}
	result := make(map[string][]byte, len(vals))
	for k, v := range vals {
		result[k] = []byte(v)
	}
	return result, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.KeyValueStore = (*RedisStore)(nil)
