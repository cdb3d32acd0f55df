// Package export writes a single note to a file in the document directory and
// hands it to a Sharer.
package export

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/aretw0/memento/internal/atomicfile"
	"github.com/aretw0/memento/pkg/core"
)

// Format selects the exported file type.
type Format string

const (
	FormatText Format = "txt"
	FormatHTML Format = "html"
)

// MimeType returns the media type of files in format f.
func (f Format) MimeType() string {
	if f == FormatHTML {
		return "text/html"
	}
	return "text/plain"
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Render returns the plain-text representation of a note.
func Render(n core.Note) string {
	return "Title: " + n.Title + "\n\nContent:\n" + n.Content
}

// RenderHTML renders the note content as Markdown into a standalone page.
func RenderHTML(n core.Note) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(n.Content), &body); err != nil {
		return nil, err
	}
	title := html.EscapeString(n.Title)

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", title, title)
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// SanitizeFileName replaces every character other than ASCII letters, digits,
// underscore, hyphen and space with an underscore and trims the result.
// An empty title becomes "note".
func SanitizeFileName(title string) string {
	if title == "" {
		title = "note"
	}
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		return "note"
	}
	return name
}

// FileName returns the sanitized file name for a note in format f.
func FileName(n core.Note, f Format) string {
	return SanitizeFileName(n.Title) + "." + string(f)
}

// Exporter writes notes into Dir and shares them.
type Exporter struct {
	Dir    string
	Format Format
	Sharer Sharer
	Logger *slog.Logger
}

// Export writes the note and shares the file, returning its path. Any failure
// is logged and returned wrapped in ErrExportFailed; nothing is retried.
func (e *Exporter) Export(ctx context.Context, n core.Note) (string, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	path, err := e.export(ctx, n)
	if err != nil {
		logger.Error("export failed", "id", n.ID, "error", err)
		return path, fmt.Errorf("%w: %v", core.ErrExportFailed, err)
	}
	logger.Info("note exported", "id", n.ID, "path", path)
	return path, nil
}

func (e *Exporter) export(ctx context.Context, n core.Note) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during export: %v", r)
		}
	}()

	format := e.Format
	if format == "" {
		format = FormatText
	}

	var data []byte
	switch format {
	case FormatHTML:
		data, err = RenderHTML(n)
		if err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	default:
		data = []byte(Render(n))
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}
	path = filepath.Join(e.Dir, FileName(n, format))
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	sharer := e.Sharer
	if sharer == nil {
		sharer = NopSharer{}
	}
	req := ShareRequest{
		Path:     path,
		Title:    "Share Note",
		Message:  "Sharing note: " + n.Title,
		MimeType: format.MimeType(),
	}
	if err := sharer.Share(ctx, req); err != nil {
		return path, fmt.Errorf("share: %w", err)
	}
	return path, nil
}
