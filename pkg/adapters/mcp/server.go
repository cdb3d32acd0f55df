// Package mcp exposes the note store as Model Context Protocol tools so
// assistants can read, write and schedule notes.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/memento/pkg/adapters/local"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/listing"
	"github.com/aretw0/memento/pkg/notes"
	"github.com/aretw0/memento/pkg/reminder"
)

// Config wires the tools to the application components.
type Config struct {
	Notes     *notes.Repository
	Reminders *reminder.Scheduler
	Notifier  *local.Notifier
	Logger    *slog.Logger
	Version   string
}

// NewServer creates an MCP server with every memento tool registered.
func NewServer(cfg Config) *server.MCPServer {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"Memento",
		version,
		server.WithToolCapabilities(true),
	)
	s.AddTools(Tools(cfg)...)
	return s
}

// Tools returns the tool definitions with their handlers.
func Tools(cfg Config) []server.ServerTool {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := &tools{cfg: cfg}

	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_notes",
				mcp.WithDescription("List notes, pinned first then newest first. Use query to keep only notes whose title or content contains the text (case-insensitive)."),
				mcp.WithString("query",
					mcp.Description("Optional: text to search for"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of notes to return (default: 50)"),
				),
			),
			Handler: t.listNotes,
		},
		{
			Tool: mcp.NewTool("get_note",
				mcp.WithDescription("Get a single note by its ID."),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("The note ID"),
				),
			),
			Handler: t.getNote,
		},
		{
			Tool: mcp.NewTool("create_note",
				mcp.WithDescription("Create a note. Title and content must both be non-blank."),
				mcp.WithString("title",
					mcp.Required(),
					mcp.Description("Note title"),
				),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("Note content"),
				),
				mcp.WithBoolean("pinned",
					mcp.Description("Pin the note to the top of the list"),
				),
			),
			Handler: t.createNote,
		},
		{
			Tool: mcp.NewTool("update_note",
				mcp.WithDescription("Replace the title and/or content of an existing note."),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("The note ID"),
				),
				mcp.WithString("title",
					mcp.Description("New title"),
				),
				mcp.WithString("content",
					mcp.Description("New content"),
				),
			),
			Handler: t.updateNote,
		},
		{
			Tool: mcp.NewTool("delete_note",
				mcp.WithDescription("Delete a note and cancel its pending reminder."),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("The note ID"),
				),
			),
			Handler: t.deleteNote,
		},
		{
			Tool: mcp.NewTool("toggle_pin",
				mcp.WithDescription("Pin or unpin a note."),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("The note ID"),
				),
			),
			Handler: t.togglePin,
		},
		{
			Tool: mcp.NewTool("set_reminder",
				mcp.WithDescription("Schedule a reminder notification for a note. The time must be in the future."),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("The note ID"),
				),
				mcp.WithString("at",
					mcp.Required(),
					mcp.Description("When to remind (RFC3339, e.g. 2030-01-02T09:00:00Z)"),
				),
			),
			Handler: t.setReminder,
		},
		{
			Tool: mcp.NewTool("clear_reminder",
				mcp.WithDescription("Cancel a note's reminder."),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("The note ID"),
				),
			),
			Handler: t.clearReminder,
		},
	}
}

type tools struct {
	cfg Config
}

func (t *tools) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := listing.FilterAndSort(t.cfg.Notes.LoadAll(ctx), req.GetString("query", ""))
	if limit := req.GetInt("limit", 50); limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return jsonResult(all)
}

func (t *tools) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	note, ok := t.cfg.Notes.FindByID(ctx, id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("note %s not found", id)), nil
	}
	return jsonResult(note)
}

func (t *tools) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note := core.Note{
		Title:   req.GetString("title", ""),
		Content: req.GetString("content", ""),
		Pinned:  req.GetBool("pinned", false),
	}
	if !note.Valid() {
		return mcp.NewToolResultError("title and content are required"), nil
	}
	saved, err := t.cfg.Notes.Upsert(ctx, note)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
	}
	return jsonResult(saved)
}

func (t *tools) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	note, ok := t.cfg.Notes.FindByID(ctx, id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("note %s not found", id)), nil
	}
	note.Title = req.GetString("title", note.Title)
	note.Content = req.GetString("content", note.Content)
	if !note.Valid() {
		return mcp.NewToolResultError("title and content must not be blank"), nil
	}
	saved, err := t.cfg.Notes.Upsert(ctx, note)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update note: %v", err)), nil
	}
	return jsonResult(saved)
}

func (t *tools) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	if t.cfg.Notifier != nil {
		if err := t.cfg.Notifier.CancelForNote(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to cancel reminder: %v", err)), nil
		}
	}
	if err := t.cfg.Notes.Remove(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete note: %v", err)), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}

func (t *tools) togglePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	note, err := t.cfg.Notes.TogglePin(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle pin: %v", err)), nil
	}
	return jsonResult(note)
}

func (t *tools) setReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	raw, err := req.RequireString("at")
	if err != nil {
		return mcp.NewToolResultError("at is required"), nil
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return mcp.NewToolResultError("invalid 'at' format, expected RFC3339"), nil
	}

	note, ok := t.cfg.Notes.FindByID(ctx, id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("note %s not found", id)), nil
	}
	if err := t.cfg.Reminders.Schedule(ctx, id, note.Title, at); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to schedule reminder: %v", err)), nil
	}
	t.cfg.Logger.Info("reminder scheduled via mcp", "note", id, "at", at.Format(time.RFC3339))

	note, _ = t.cfg.Notes.FindByID(ctx, id)
	return jsonResult(note)
}

func (t *tools) clearReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := t.cfg.Reminders.Clear(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear reminder: %v", err)), nil
	}
	note, _ := t.cfg.Notes.FindByID(ctx, id)
	return jsonResult(note)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
