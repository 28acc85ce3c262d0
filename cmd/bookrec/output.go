package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rushteam/bookrec/core"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBooks(books []core.Book) error {
	if !humanOutput {
		return outputJSON(books)
	}
	if len(books) == 0 {
		fmt.Println("No recommendations.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTITLE\tAUTHOR\tGENRE\tRATING")
	for i, b := range books {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\n", i+1, b.ID, b.Title, b.Author, b.Genre, b.AverageRating)
	}
	return w.Flush()
}

func printSimilar(books []core.SimilarBook) error {
	if !humanOutput {
		return outputJSON(books)
	}
	if len(books) == 0 {
		fmt.Println("No similar books.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTITLE\tAUTHOR\tSIMILARITY")
	for i, b := range books {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.4f\n", i+1, b.ID, b.Title, b.Author, b.Similarity)
	}
	return w.Flush()
}
