package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Long:  `Delete permanently removes a note and cancels its pending reminder.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		if !deleteYes {
			fmt.Printf("Are you sure you want to delete %s? [y/N] ", id)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Aborted.")
				return
			}
		}

		if err := app.Notifier.CancelForNote(ctx, id); err != nil {
			fatal("Failed to cancel reminder", err)
		}
		if err := app.Notes.Remove(ctx, id); err != nil {
			fatal("Failed to delete note", err)
		}
		fmt.Printf("Note deleted: %s\n", id)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}
