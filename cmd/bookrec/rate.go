package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rateCmd)
}

var rateCmd = &cobra.Command{
	Use:   "rate <user-id> <book-id> <score>",
	Short: "Record a 1-5 rating (replaces any previous rating)",
	Long: `Record a rating. The model is not retrained; run 'bookrec train' (or
'bookrec serve' with retrain_interval) for the rating to take effect.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("score must be an integer: %w", err)
		}
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.catalog.Rate(ctx, args[0], args[1], score); err != nil {
			return err
		}
		if humanOutput {
			fmt.Printf("Rated %s %d/5 for %s\n", args[1], score, args[0])
			return nil
		}
		return outputJSON(map[string]any{"user_id": args[0], "book_id": args[1], "rating": score})
	},
}
