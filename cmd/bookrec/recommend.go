package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/config/builders"
)

var (
	recommendN        int
	recommendAlpha    float64
	recommendPipeline string
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntVarP(&recommendN, "limit", "n", 0, "Number of recommendations (0 = engine default)")
	recommendCmd.Flags().Float64Var(&recommendAlpha, "alpha", -1, "Collaborative weight in [0,1] (negative = engine default)")
	recommendCmd.Flags().StringVar(&recommendPipeline, "pipeline", "", "Pipeline YAML file (overrides the config file's pipeline)")
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <user-id>",
	Short: "Hybrid recommendations for a user",
	Long: `Recommend books for a user by fusing collaborative filtering and
content similarity rankings. Books the user already rated are never returned.

With --pipeline (or "pipeline" in the config file) the recommendation chain is
built from YAML using the registered node types.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID := args[0]

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		path := recommendPipeline
		if path == "" {
			path = a.cfg.Pipeline
		}
		if path == "" {
			books, err := a.engine.HybridRecommendations(ctx, userID, recommendN, recommendAlpha)
			if err != nil {
				return err
			}
			return printBooks(books)
		}

		builders.RegisterEngine(a.engine)
		p, err := config.LoadPipeline(path)
		if err != nil {
			return fmt.Errorf("build pipeline %s: %w", path, err)
		}
		a.logger.Debug().Stringer("pipeline", p).Msg("pipeline loaded")
		// 配置驱动的召回节点读取当前模型，先确保模型存在
		if _, err := a.engine.Model(ctx); err != nil {
			return err
		}
		params := map[string]any{}
		if recommendN > 0 {
			params["n"] = recommendN
		}
		books, err := a.engine.Recommend(ctx, userID, p, params)
		if err != nil {
			return err
		}
		return printBooks(books)
	},
}
