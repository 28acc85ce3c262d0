// Package main provides the bookrec CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/engine"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath  string
	humanOutput bool
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bookrec",
	Short: "Hybrid book recommendation engine",
	Long: `bookrec trains a hybrid recommender (user-based collaborative filtering
plus TF-IDF content similarity) over a book catalog and answers queries.

Configuration is read from defaults, an optional YAML file (--config) and
BOOKREC_ environment variables (e.g. BOOKREC_STORE__DRIVER=redis).
All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// app 是一次命令执行所需的依赖。
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	catalog config.Catalog
	engine  *engine.Engine
	close   func() error
}

// openApp 加载配置、打开数据源并创建引擎（不训练）。
func openApp(ctx context.Context, opts ...engine.Option) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	catalog, closer, err := config.OpenCatalog(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", cfg.Store.Driver, err)
	}
	eng, err := engine.New(catalog, cfg.Engine, logger, opts...)
	if err != nil {
		_ = closer()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, catalog: catalog, engine: eng, close: closer}, nil
}

func (a *app) Close() {
	if a.close == nil {
		return
	}
	if err := a.close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing catalog")
	}
}
