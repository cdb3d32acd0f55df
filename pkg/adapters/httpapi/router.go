// Package httpapi exposes the note store as a JSON API for local integrations
// (editor plugins, scripts, launchers).
package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/memento/pkg/adapters/local"
	"github.com/aretw0/memento/pkg/notes"
	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

// Config wires the API to the application components.
type Config struct {
	Notes     *notes.Repository
	Reminders *reminder.Scheduler
	Notifier  *local.Notifier
	Router    *router.Router
	Logger    *slog.Logger

	// AllowedOrigins enables CORS for browser clients when non-empty.
	AllowedOrigins   []string
	AllowCredentials bool

	// Tokens guards every route but /health when set.
	Tokens *Tokens

	// MCP is mounted at /mcp when set.
	MCP http.Handler

	// Status backs GET /status. Optional.
	Status func() map[string]any
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins, cfg.AllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h := &handler{
		notes:     cfg.Notes,
		reminders: cfg.Reminders,
		notifier:  cfg.Notifier,
		router:    cfg.Router,
		logger:    cfg.Logger,
	}

	r.Group(func(r chi.Router) {
		if cfg.Tokens != nil {
			r.Use(RequireToken(cfg.Tokens))
		}

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.get)
				r.Put("/", h.update)
				r.Delete("/", h.delete)
				r.Post("/pin", h.togglePin)
				r.Put("/reminder", h.setReminder)
				r.Delete("/reminder", h.clearReminder)
				r.Get("/export", h.export)
			})
		})

		r.Post("/notifications/background", h.background)

		if cfg.Status != nil {
			r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, cfg.Status())
			})
		}

		if cfg.MCP != nil {
			r.Handle("/mcp", cfg.MCP)
		}
	})

	return r
}
