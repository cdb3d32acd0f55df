package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/export"
)

var (
	showRender bool
	showWidth  int
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		note, ok := app.Notes.FindByID(ctx, args[0])
		if !ok {
			fatal("Failed to show note", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
		}
		if showRender {
			out, err := renderMarkdown(note, showWidth)
			if err != nil {
				fatal("Failed to render note", err)
			}
			fmt.Print(out)
			return
		}
		fmt.Println(export.Render(note))
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin [id]",
	Short: "Toggle whether a note is pinned",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		note, err := app.Notes.TogglePin(ctx, args[0])
		if err != nil {
			fatal("Failed to toggle pin", err)
		}
		if note.Pinned {
			fmt.Printf("Note pinned: %s\n", note.ID)
		} else {
			fmt.Printf("Note unpinned: %s\n", note.ID)
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVarP(&showRender, "render", "r", false, "Render the content as Markdown")
	showCmd.Flags().IntVar(&showWidth, "width", 80, "Wrap rendered output at this width")
	rootCmd.AddCommand(pinCmd)
}
