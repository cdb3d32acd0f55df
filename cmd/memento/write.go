package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento/pkg/autosave"
)

var (
	writeTitle   string
	writeContent string
	writePinned  bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a note",
	Long: `Create a note from --title and --content.
Pass --content - to read the content from stdin. Both fields are required;
a note missing either is not saved.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		session, err := app.OpenSession(ctx, "")
		if err != nil {
			fatal("Failed to open editor session", err)
		}
		applyEdits(cmd, session)
		if err := session.Close(ctx); err != nil {
			fatal("Failed to save note", err)
		}
		if session.ID() == "" {
			fatal("Note not saved", errors.New("title and content are required"))
		}
		fmt.Println(session.ID())
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a note",
	Long:  `Edit replaces the fields given as flags and keeps the others.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		session, err := app.OpenSession(ctx, args[0])
		if err != nil {
			fatal("Failed to open note", err)
		}
		applyEdits(cmd, session)
		if err := session.Close(ctx); err != nil {
			fatal("Failed to save note", err)
		}
		if session.State() == autosave.Idle && !session.Draft().Valid() {
			fatal("Note not saved", errors.New("title and content must not be blank"))
		}
		fmt.Printf("Note saved: %s\n", session.ID())
	},
}

// applyEdits feeds the flags that were set into the session.
func applyEdits(cmd *cobra.Command, s *autosave.Session) {
	if cmd.Flags().Changed("title") {
		s.SetTitle(writeTitle)
	}
	if cmd.Flags().Changed("content") {
		content := writeContent
		if content == "-" {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Failed to read stdin", err)
			}
			content = string(b)
		}
		s.SetContent(content)
	}
	if cmd.Flags().Changed("pinned") {
		s.SetPinned(writePinned)
	}
}

func init() {
	for _, c := range []*cobra.Command{newCmd, editCmd} {
		c.Flags().StringVarP(&writeTitle, "title", "t", "", "Note title")
		c.Flags().StringVarP(&writeContent, "content", "c", "", "Note content (- reads stdin)")
		c.Flags().BoolVar(&writePinned, "pinned", false, "Pin the note")
		rootCmd.AddCommand(c)
	}
}
