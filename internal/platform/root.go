package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the per-project data directory.
const DataDirName = ".memento"

// FindRoot walks upwards from startDir looking for a .memento directory or a
// memento.yaml file and returns the directory holding it.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, DataDirName) || hasFile(dir, ConfigFileName) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("root not found")
}

// DefaultDataDir picks the data directory when none is configured: the
// .memento directory of the enclosing project, else ~/.memento.
func DefaultDataDir() string {
	if wd, err := os.Getwd(); err == nil {
		if root, err := FindRoot(wd); err == nil {
			return filepath.Join(root, DataDirName)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, DataDirName)
	}
	return DataDirName
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
