package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento/pkg/core"
)

var remindAt string

var remindCmd = &cobra.Command{
	Use:   "remind [id]",
	Short: "Set a reminder for a note",
	Long: `Set a reminder. --at accepts RFC 3339 ("2025-06-01T09:00:00Z"),
local time ("2025-06-01 09:00") or an offset from now ("+90m").
The time must be in the future. A new reminder replaces the previous one.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		at, err := parseWhen(remindAt, time.Now())
		if err != nil {
			fatal("Invalid --at", err)
		}

		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		note, ok := app.Notes.FindByID(ctx, args[0])
		if !ok {
			fatal("Failed to set reminder", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
		}
		if err := app.Reminders.Schedule(ctx, note.ID, note.Title, at); err != nil {
			fatal("Failed to set reminder", err)
		}
		fmt.Printf("Reminder set: %s\n", at.Local().Format(time.RFC1123))
	},
}

var unremindCmd = &cobra.Command{
	Use:   "unremind [id]",
	Short: "Cancel a note's reminder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		if err := app.Reminders.Clear(ctx, args[0]); err != nil {
			fatal("Failed to clear reminder", err)
		}
		fmt.Printf("Reminder cleared: %s\n", args[0])
	},
}

// parseWhen accepts RFC 3339, local "2006-01-02 15:04" or "+<duration>".
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("a time is required")
	}
	if strings.HasPrefix(s, "+") {
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", s, time.Local)
}

func init() {
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(unremindCmd)
	remindCmd.Flags().StringVar(&remindAt, "at", "", "When to remind")
	_ = remindCmd.MarkFlagRequired("at")
}
