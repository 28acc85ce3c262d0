package main

import (
	"github.com/spf13/cobra"
)

var similarN int

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarN, "limit", "n", 0, "Number of similar books (0 = engine default)")
}

var similarCmd = &cobra.Command{
	Use:   "similar <book-id>",
	Short: "Find books similar to a specific book",
	Long: `Find books whose genre, author and description are most similar to the
given book. The book itself is excluded; an unknown book yields an empty list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		books, err := a.engine.SimilarBooks(ctx, args[0], similarN)
		if err != nil {
			return err
		}
		return printSimilar(books)
	},
}
