package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento/pkg/export"
	"github.com/aretw0/memento/pkg/router"
)

var (
	notifyID        string
	notifyType      string
	openInitialID   string
	openInitialType string
)

var notifyCmd = &cobra.Command{
	Use:   "notify [foreground|background]",
	Short: "Feed a notification event to the router",
	Long: `Notify simulates the notification layer.

foreground  the app is running; a press opens the note right away.
background  the app is not in front; a press is remembered and the note
            opens at the next "memento open".`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"foreground", "background"},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		event := router.Event{
			Type:    router.ParseEventType(notifyType),
			Payload: router.Payload{NoteID: notifyID},
		}

		switch args[0] {
		case "foreground":
			opened := app.Router.Dispatch(event, func(id string) {
				note, ok := app.Notes.FindByID(ctx, id)
				if !ok {
					fmt.Printf("Note %s no longer exists\n", id)
					return
				}
				fmt.Println(export.Render(note))
			})
			if !opened {
				fmt.Printf("Ignored %s event\n", event.Type)
			}
		case "background":
			if err := app.Router.HandleBackground(ctx, event); err != nil {
				fatal("Failed to record notification", err)
			}
			fmt.Printf("Recorded %s event\n", event.Type)
		default:
			fatal("Invalid context", fmt.Errorf("expected foreground or background, got %q", args[0]))
		}
	},
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Start up and open the note a notification points at",
	Long: `Open resolves the note to show at startup. A notification that
launched the app (--initial-id) wins; otherwise a press remembered while
in the background is consumed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		var initial router.InitialSource
		if openInitialID != "" {
			initial = router.InitialFunc(func(context.Context) (router.Event, bool, error) {
				return router.Event{
					Type:    router.ParseEventType(openInitialType),
					Payload: router.Payload{NoteID: openInitialID},
				}, true, nil
			})
		}

		opened := app.Router.StartupNavigate(ctx, initial, func(id string) {
			note, ok := app.Notes.FindByID(ctx, id)
			if !ok {
				fmt.Printf("Note %s no longer exists\n", id)
				return
			}
			fmt.Println(export.Render(note))
		})
		if !opened {
			fmt.Println("Nothing to open")
		}
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(openCmd)
	notifyCmd.Flags().StringVar(&notifyID, "id", "", "Note id carried by the notification")
	notifyCmd.Flags().StringVar(&notifyType, "type", "press", "Event type: press, delivered or other")
	openCmd.Flags().StringVar(&openInitialID, "initial-id", "", "Note id of the notification that launched the app")
	openCmd.Flags().StringVar(&openInitialType, "initial-type", "press", "Event type of the launching notification")
}
