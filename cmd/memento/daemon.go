package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/spf13/cobra"

	lcadapter "github.com/aretw0/memento/pkg/adapters/lifecycle"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

var daemonInterval time.Duration

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Deliver reminders as they fall due",
	Long: `Daemon runs the reminder dispatcher under a supervisor until interrupted.
Reminders that fell due while it was not running are delivered at start.
With the fs adapter it also reports changes other processes make to the data.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("interval") {
			cfg.Dispatch.Interval = daemonInterval
		}
		app := openApp(ctx)
		defer app.Close()
		logger := slog.Default()

		deliveries := make(chan router.Event, 16)
		sink := func(ctx context.Context, e router.Event, t reminder.Trigger) {
			fmt.Printf("%s  %s  %s\n", time.Now().Format("15:04:05"), t.Notification.Title, t.Notification.Body)
			select {
			case deliveries <- e:
			default:
				logger.Warn("delivery backlog full, dropping event", "note", e.Payload.NoteID)
			}
		}

		spec := supervisor.Spec{
			Name: "reminder-dispatcher",
			Type: string(worker.TypeGoroutine),
			Factory: func() (worker.Worker, error) {
				return app.NewDispatcher(sink), nil
			},
			Backoff: supervisor.Backoff{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     30 * time.Second,
				Multiplier:      2,
				ResetDuration:   time.Minute,
				MaxRestarts:     10,
				MaxDuration:     10 * time.Minute,
			},
			RestartPolicy: supervisor.RestartOnFailure,
		}
		sup := supervisor.New("memento-daemon", supervisor.StrategyOneForOne, spec)
		if err := sup.Start(ctx); err != nil {
			fatal("Failed to start dispatcher", err)
		}

		notifications := lcadapter.NewNotificationSource(deliveries)
		if err := notifications.Start(ctx); err != nil {
			fatal("Failed to start notification source", err)
		}

		// Stays nil (never ready) unless the store can be watched.
		var changes <-chan lifecycle.Event
		if w, ok := app.Store.(core.Watchable); ok {
			events, err := w.Watch(ctx, "*")
			if err != nil {
				logger.Warn("watching the data directory failed", "error", err)
			} else {
				src := lcadapter.NewSource(events)
				if err := src.Start(ctx); err != nil {
					fatal("Failed to start change source", err)
				}
				changes = src.Events()
			}
		}

		logger.Info("daemon started", "data_dir", app.DataDir)
		delivered := 0
		for running := true; running; {
			select {
			case <-ctx.Done():
				running = false
			case e, ok := <-notifications.Events():
				if !ok {
					running = false
					continue
				}
				delivered++
				logger.Debug("notification delivered", "event", e.String(), "total", delivered)
			case e, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				logger.Info("data changed by another process", "event", e.String())
			}
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			logger.Warn("dispatcher did not stop cleanly", "error", err)
		}
		logger.Info("daemon stopped", "delivered", delivered)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "How often to check for due reminders (default 800ms)")
}
