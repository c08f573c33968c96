package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// fileSourceHandler reads registry text from a local file
type fileSourceHandler struct {
	name string
	path string
}

// NewFileSourceHandler creates a handler for a local file. An empty name
// defaults to the path.
func NewFileSourceHandler(name, path string) SourceHandler {
	if name == "" {
		name = path
	}
	return &fileSourceHandler{
		name: name,
		path: path,
	}
}

// Name returns the source name
func (h *fileSourceHandler) Name() string {
	return h.name
}

// Fetch reads the whole file
func (h *fileSourceHandler) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s: %w", h.path, err)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", h.path, err)
	}

	return data, nil
}
