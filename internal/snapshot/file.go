package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stacklok/usb-ids-registry/internal/registry"
)

// fileStore implements Store on the local filesystem
type fileStore struct {
	path string
}

// NewFileStore creates a snapshot store backed by a JSON file
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

// Location returns the snapshot file path
func (f *fileStore) Location() string {
	return f.path
}

// Load reads and decodes the snapshot file
func (f *fileStore) Load(_ context.Context) (registry.Registry, error) {
	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, notFound(fmt.Errorf("failed to read snapshot file %s: %w", f.path, err))
	}

	var reg registry.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		slog.Warn("Ignoring undecodable snapshot", "path", f.path, "error", err)
		return nil, notFound(fmt.Errorf("failed to decode snapshot file %s: %w", f.path, err))
	}

	return registry.Normalize(reg), nil
}

// Save writes the registry to a temporary file in the same directory and
// renames it over the snapshot, so readers see the old or the new file
func (f *fileStore) Save(ctx context.Context, reg registry.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(registry.Normalize(reg), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry data: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return WriteFileAtomic(f.path, data, 0o644)
}

// WriteFileAtomic writes data to path via a synced temporary file and a
// rename. The temporary file is removed on failure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
