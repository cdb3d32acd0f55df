package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento/pkg/adapters/local"
	"github.com/aretw0/memento/pkg/reminder"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage state and pending reminders",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		pending, err := app.Notifier.Pending(ctx)
		if err != nil {
			fatal("Failed to read reminders", err)
		}
		delivered, err := app.Notifier.Delivered(ctx)
		if err != nil {
			fatal("Failed to read reminders", err)
		}

		out := struct {
			DataDir    string             `json:"data_dir"`
			Components map[string]any     `json:"components"`
			Notes      int                `json:"notes"`
			Pending    []reminder.Trigger `json:"pending_reminders"`
			Delivered  []local.Delivery   `json:"recent_deliveries"`
		}{
			DataDir:    app.DataDir,
			Components: app.Status(),
			Notes:      len(app.Notes.LoadAll(ctx)),
			Pending:    pending,
			Delivered:  delivered,
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			fatal("Failed to encode JSON", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
