package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedExtension indicates the output is not an Excel workbook name.
	ErrUnsupportedExtension = errors.New("export: unsupported file extension")
	// ErrInvalidPath indicates the output cannot be created where requested.
	ErrInvalidPath = errors.New("export: invalid output path")
)

var allowedExts = map[string]struct{}{".xlsx": {}, ".xlsm": {}}

// ResolvePath checks that input names a workbook file in an existing
// directory and returns its canonical absolute path. The file itself need
// not exist yet but must not be a directory.
func ResolvePath(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrInvalidPath
	}
	ext := strings.ToLower(filepath.Ext(input))
	if _, ok := allowedExts[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("export: abs path: %w", err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, dir)
	}

	real := filepath.Join(dir, filepath.Base(abs))
	if info, err := os.Stat(real); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, real)
	}
	return real, nil
}
