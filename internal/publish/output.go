package publish

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for output paths that would leave the output root.
var ErrUnsafePath = errors.New("output path escapes the output root")

// OutputPath maps an entity URL to a file path relative to the output root.
// A URL without an extension becomes a directory holding index<ext>.
func OutputPath(url, ext string) (string, error) {
	u := strings.Trim(strings.TrimSpace(url), "/")
	if u == "" {
		return "index" + ext, nil
	}
	u = path.Clean(u)
	if u == ".." || strings.HasPrefix(u, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, url)
	}
	if path.Ext(u) == "" {
		return path.Join(u, "index"+ext), nil
	}
	return u, nil
}

// writeOutput writes data to rel below root, creating parent directories.
func writeOutput(root, rel string, data []byte) (string, error) {
	cleanRel := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleanRel) || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}

	full := filepath.Join(root, cleanRel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	// #nosec G306 -- generated site files are meant to be world readable.
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return full, nil
}
