package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/store"
)

// EnvPrefix 是环境变量前缀，层级用双下划线分隔：
//
//	BOOKREC_ENGINE__MAX_FEATURES=200  -> engine.max_features
//	BOOKREC_STORE__DRIVER=redis       -> store.driver
const EnvPrefix = "BOOKREC_"

// Config 是服务级配置：引擎参数、数据源、日志与 Pipeline。
type Config struct {
	Engine engine.Config `koanf:"engine"`
	Store  StoreConfig   `koanf:"store"`
	Log    LogConfig     `koanf:"log"`

	// Pipeline 是可选的 Pipeline YAML 路径，为空时使用内置混合推荐链路
	Pipeline string `koanf:"pipeline"`

	// RetrainInterval 为 0 时不自动重新训练
	RetrainInterval time.Duration `koanf:"retrain_interval"`
}

// StoreConfig 选择数据源后端。
type StoreConfig struct {
	// Driver: memory / redis / sqlite / mongo
	Driver     string             `koanf:"driver"`
	KeyPrefix  string             `koanf:"key_prefix"`
	SQLitePath string             `koanf:"sqlite_path"`
	Redis      store.RedisOptions `koanf:"redis"`
	Mongo      store.MongoOptions `koanf:"mongo"`
}

// LogConfig 是 zerolog 的输出配置。
type LogConfig struct {
	Level  string `koanf:"level"`  // debug / info / warn / error
	Format string `koanf:"format"` // json / console
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Engine: engine.DefaultConfig(),
		Store: StoreConfig{
			Driver:     "sqlite",
			KeyPrefix:  "bookrec",
			SQLitePath: "bookrec.db",
			Redis:      store.RedisOptions{Addr: "localhost:6379"},
			Mongo:      store.MongoOptions{Database: "bookrec"},
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load 按 默认值 → YAML 文件（path 非空时） → 环境变量 的顺序加载配置。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransformFunc: BOOKREC_ENGINE__MAX_FEATURES -> engine.max_features
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// Validate 补齐引擎默认值并校验。
func (c *Config) Validate() error {
	c.Engine = c.Engine.WithDefaults()
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	switch c.Store.Driver {
	case "memory", "redis", "mongo":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (supported: memory, redis, sqlite, mongo)", c.Store.Driver)
	}
	if c.RetrainInterval < 0 {
		return fmt.Errorf("retrain_interval must not be negative")
	}
	return nil
}
