package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
)

// ShareRequest describes the file handed to the share action.
type ShareRequest struct {
	Path     string
	Title    string
	Message  string
	MimeType string
}

// Sharer hands an exported file to the user.
type Sharer interface {
	Share(ctx context.Context, req ShareRequest) error
}

// SharerFunc adapts a function to Sharer.
type SharerFunc func(ctx context.Context, req ShareRequest) error

// Share implements Sharer.
func (f SharerFunc) Share(ctx context.Context, req ShareRequest) error {
	return f(ctx, req)
}

// NopSharer leaves the file where it was written.
type NopSharer struct{}

// Share implements Sharer.
func (NopSharer) Share(context.Context, ShareRequest) error { return nil }

// ClipboardSharer copies the exported file's content to the system clipboard.
type ClipboardSharer struct {
	// WriteAll defaults to clipboard.WriteAll.
	WriteAll func(text string) error
}

// Share implements Sharer.
func (s ClipboardSharer) Share(_ context.Context, req ShareRequest) error {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return err
	}
	write := s.WriteAll
	if write == nil {
		if clipboard.Unsupported {
			return fmt.Errorf("clipboard not supported on this system")
		}
		write = clipboard.WriteAll
	}
	return write(string(data))
}

// CommandSharer opens the exported file with an external program.
type CommandSharer struct {
	// Command is the opener; empty selects the platform default.
	Command string
	Args    []string
}

// Share implements Sharer.
func (s CommandSharer) Share(ctx context.Context, req ShareRequest) error {
	name, args := s.Command, s.Args
	if name == "" {
		switch runtime.GOOS {
		case "darwin":
			name = "open"
		case "windows":
			name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
		case "linux", "freebsd", "openbsd", "netbsd":
			name = "xdg-open"
		default:
			return fmt.Errorf("share not supported on %s", runtime.GOOS)
		}
	}
	cmd := exec.CommandContext(ctx, name, append(append([]string{}, args...), req.Path)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
