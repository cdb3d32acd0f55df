package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/memento/pkg/adapters/local"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/export"
	"github.com/aretw0/memento/pkg/listing"
	"github.com/aretw0/memento/pkg/notes"
	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

type handler struct {
	notes     *notes.Repository
	reminders *reminder.Scheduler
	notifier  *local.Notifier
	router    *router.Router
	logger    *slog.Logger
}

type noteReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Pinned  *bool   `json:"pinned"`
}

type reminderReq struct {
	At string `json:"at"` // RFC3339
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	all := listing.FilterAndSort(h.notes.LoadAll(r.Context()), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, all)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	note, ok := h.notes.FindByID(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req noteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	var note core.Note
	req.apply(&note)
	if !note.Valid() {
		http.Error(w, "title and content required", http.StatusBadRequest)
		return
	}

	saved, err := h.notes.Upsert(r.Context(), note)
	if err != nil {
		h.fail(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, ok := h.notes.FindByID(r.Context(), id)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req noteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.apply(&note)
	if !note.Valid() {
		http.Error(w, "title and content must not be blank", http.StatusBadRequest)
		return
	}

	saved, err := h.notes.Upsert(r.Context(), note)
	if err != nil {
		h.fail(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.notifier != nil {
		if err := h.notifier.CancelForNote(r.Context(), id); err != nil {
			h.fail(w, "cancel reminder", err)
			return
		}
	}
	if err := h.notes.Remove(r.Context(), id); err != nil {
		h.fail(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) togglePin(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.TogglePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "toggle pin", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *handler) setReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, ok := h.notes.FindByID(r.Context(), id)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req reminderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(req.At))
	if err != nil {
		http.Error(w, "invalid at (RFC3339)", http.StatusBadRequest)
		return
	}

	if err := h.reminders.Schedule(r.Context(), id, note.Title, at); err != nil {
		h.fail(w, "schedule reminder", err)
		return
	}
	h.get(w, r)
}

func (h *handler) clearReminder(w http.ResponseWriter, r *http.Request) {
	if err := h.reminders.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "clear reminder", err)
		return
	}
	h.get(w, r)
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	note, ok := h.notes.FindByID(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body := []byte(export.Render(note))
	if format == export.FormatHTML {
		if body, err = export.RenderHTML(note); err != nil {
			h.fail(w, "render note", fmt.Errorf("%w: %v", core.ErrExportFailed, err))
			return
		}
	}

	w.Header().Set("Content-Type", format.MimeType()+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(note, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// background records a notification event received while no UI is running.
func (h *handler) background(w http.ResponseWriter, r *http.Request) {
	var e router.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := h.router.HandleBackground(r.Context(), e); err != nil {
		h.fail(w, "record notification", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (r noteReq) apply(n *core.Note) {
	if r.Title != nil {
		n.Title = *r.Title
	}
	if r.Content != nil {
		n.Content = *r.Content
	}
	if r.Pinned != nil {
		n.Pinned = *r.Pinned
	}
}

// fail maps domain errors to status codes.
func (h *handler) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidReminderTime):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrReadOnly):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrNotificationRegistrationFailed):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
