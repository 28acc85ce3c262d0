package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/store"
)

var seedValue uint64

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Uint64Var(&seedValue, "seed", 42, "Random seed for sample ratings")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample catalog (15 books, 5 users, random ratings)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := store.Seed(ctx, a.catalog, seedValue)
		if err != nil {
			return err
		}
		a.logger.Info().
			Str("source", a.catalog.Name()).
			Int("books", stats.Books).
			Int("users", stats.Users).
			Int("ratings", stats.Ratings).
			Msg("sample catalog loaded")
		if humanOutput {
			fmt.Printf("Seeded %d books, %d users, %d ratings\n", stats.Books, stats.Users, stats.Ratings)
			return nil
		}
		return outputJSON(stats)
	},
}
