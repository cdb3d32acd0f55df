package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/aretw0/memento"
	"github.com/aretw0/memento/pkg/adapters/httpapi"
	mementomcp "github.com/aretw0/memento/pkg/adapters/mcp"
	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

var (
	serveAddr     string
	serveDispatch bool
	tokenSubject  string
	tokenTTL      time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the notes as a local JSON API",
	Long: `Serve exposes notes, reminders and exports over HTTP for local
integrations. Set server.secret (or MEMENTO_API_SECRET) to require bearer
tokens minted by "memento token". The MCP endpoint is mounted at /mcp
unless server.mcp is false.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}
		app := openApp(ctx)
		defer app.Close()
		logger := slog.Default()

		apiCfg := httpapi.Config{
			Notes:            app.Notes,
			Reminders:        app.Reminders,
			Notifier:         app.Notifier,
			Router:           app.Router,
			Logger:           logger,
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowCredentials: cfg.Server.AllowCredentials,
			Status:           app.Status,
		}
		if cfg.Server.Secret != "" {
			apiCfg.Tokens = httpapi.NewTokens(cfg.Server.Secret)
		}
		if cfg.Server.MCP {
			apiCfg.MCP = server.NewStreamableHTTPServer(newMCPServer(app))
		}

		if serveDispatch {
			dispatcher := app.NewDispatcher(func(ctx context.Context, e router.Event, t reminder.Trigger) {
				logger.Info("reminder delivered", "note", e.Payload.NoteID, "body", t.Notification.Body)
			})
			if err := dispatcher.Start(ctx); err != nil {
				fatal("Failed to start dispatcher", err)
			}
			defer dispatcher.Stop(context.Background())
		}

		srv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      httpapi.NewRouter(apiCfg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		lifecycle.Go(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			logger.Info("shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}, lifecycle.WithErrorHandler(func(err error) {
			logger.Error("server shutdown error", "error", err)
		}))

		logger.Info("server starting", "addr", cfg.Server.Addr, "auth", apiCfg.Tokens != nil, "mcp", cfg.Server.MCP)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			fatal("Server error", err)
		}
		logger.Info("server stopped")
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.Server.Secret == "" {
			fatal("Cannot mint token", errors.New("server.secret (or MEMENTO_API_SECRET) is not set"))
		}
		token, err := httpapi.NewTokens(cfg.Server.Secret).Sign(tokenSubject, tokenTTL)
		if err != nil {
			fatal("Failed to sign token", err)
		}
		fmt.Println(token)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)
		defer app.Close()

		if err := server.ServeStdio(newMCPServer(app)); err != nil {
			fatal("MCP server error", err)
		}
	},
}

func newMCPServer(app *memento.App) *server.MCPServer {
	return mementomcp.NewServer(mementomcp.Config{
		Notes:     app.Notes,
		Reminders: app.Reminders,
		Notifier:  app.Notifier,
		Logger:    slog.Default(),
		Version:   strings.TrimSpace(memento.Version),
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(mcpCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default 127.0.0.1:7521)")
	serveCmd.Flags().BoolVar(&serveDispatch, "dispatch", false, "Also deliver due reminders")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Name of the client the token is for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (0 never expires)")
}
