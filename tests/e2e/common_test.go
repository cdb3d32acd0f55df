package e2e

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildMementoBinary builds the memento binary in the specified directory and returns its path.
func buildMementoBinary(t *testing.T, dir string) string {
	t.Helper()
	bin := filepath.Join(dir, "memento.exe")
	buildCmd := exec.Command("go", "build", "-o", bin, "../../cmd/memento")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build memento: %v\n%s", err, string(out))
	}
	return bin
}

// runMemento executes the binary against dataDir and returns its trimmed stdout.
func runMemento(t *testing.T, bin, dataDir string, input *strings.Reader, args ...string) string {
	t.Helper()
	full := append([]string{"--data-dir", dataDir}, args...)
	cmd := exec.Command(bin, full...)
	cmd.Dir = dataDir
	if input != nil {
		cmd.Stdin = input
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("memento %v failed: %v\nstdout: %s\nstderr: %s", args, err, out, stderr.String())
	}
	return strings.TrimSpace(string(out))
}
