package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(trainCmd)
}

// TrainResponse is the response for the train command.
type TrainResponse struct {
	Version    int64  `json:"version"`
	Users      int    `json:"users"`
	Books      int    `json:"books"`
	Ratings    int    `json:"ratings"`
	Vocabulary int    `json:"vocabulary"`
	Duration   string `json:"duration"`
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the model and print its dimensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.Train(ctx); err != nil {
			return err
		}
		m, err := a.engine.Current()
		if err != nil {
			return err
		}
		resp := TrainResponse{
			Version:    m.Version,
			Users:      m.Ratings().Users(),
			Books:      len(m.ItemIDs()),
			Ratings:    m.RatingCount,
			Vocabulary: len(m.Vocabulary()),
			Duration:   m.TrainingTime.String(),
		}
		if humanOutput {
			fmt.Printf("Trained model v%d: %d users, %d books, %d ratings, %d terms in %s\n",
				resp.Version, resp.Users, resp.Books, resp.Ratings, resp.Vocabulary, resp.Duration)
			return nil
		}
		return outputJSON(resp)
	},
}
