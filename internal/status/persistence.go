// Package status provides sync status tracking and persistence.
package status

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

// StatusFileName is the file holding the last sync status
const StatusFileName = "status.yaml"

// StatusPersistence stores the outcome of the most recent sync
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus replaces the stored status
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus returns the stored status, or an empty one before the first save
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// fsStatusPersistence keeps StatusFileName at the root of a billy filesystem
type fsStatusPersistence struct {
	fs billy.Filesystem
}

// NewFileStatusPersistence stores the status under dir on the local disk.
// dir is created on the first save.
func NewFileStatusPersistence(dir string) StatusPersistence {
	return NewStatusPersistence(osfs.New(dir))
}

// NewStatusPersistence stores the status on the given filesystem
func NewStatusPersistence(filesystem billy.Filesystem) StatusPersistence {
	return &fsStatusPersistence{fs: filesystem}
}

// SaveStatus writes YAML to a temporary file and renames it over the old one
func (p *fsStatusPersistence) SaveStatus(_ context.Context, status *SyncStatus) error {
	data, err := yaml.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	tmp := StatusFileName + ".tmp"
	if err := util.WriteFile(p.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}
	if err := p.fs.Rename(tmp, StatusFileName); err != nil {
		_ = p.fs.Remove(tmp)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// LoadStatus reads the status file
func (p *fsStatusPersistence) LoadStatus(_ context.Context) (*SyncStatus, error) {
	data, err := util.ReadFile(p.fs, StatusFileName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &SyncStatus{}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	status := &SyncStatus{}
	if err := yaml.Unmarshal(data, status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}
	return status, nil
}
