package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento/pkg/listing"
)

var (
	listJSON  bool
	listQuery string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, pinned first and newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		notes := listing.FilterAndSort(app.Notes.LoadAll(ctx), listQuery)

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(notes); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, n := range notes {
			fmt.Println(formatLine(n))
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Only notes whose title or content contains this text")
}
