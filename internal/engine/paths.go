package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandHome expands a leading '~' to the user's home directory so model
// paths like ~/models/bert/model.onnx work from the shell.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// pathExists checks if the given path exists.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
