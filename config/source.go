package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

// Catalog 是可写的数据源，CLI 的 seed / rate 通过它写入。
type Catalog interface {
	core.DataSource
	store.Writer
}

// OpenCatalog 按 StoreConfig 打开数据源，返回的 closer 负责释放连接。
func OpenCatalog(ctx context.Context, cfg StoreConfig) (Catalog, func() error, error) {
	switch cfg.Driver {
	case "memory":
		kv := store.NewMemoryStore()
		return store.NewCatalogAdapter(kv, cfg.KeyPrefix), kv.Close, nil
	case "redis":
		kv, err := store.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store.NewCatalogAdapter(kv, cfg.KeyPrefix), kv.Close, nil
	case "sqlite":
		src, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case "mongo":
		src, err := store.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return src.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewLogger 按 LogConfig 创建 zerolog.Logger，w 为 nil 时写到 stderr。
func NewLogger(cfg LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log.level: %w", err)
		}
		level = l
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
