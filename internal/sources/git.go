package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/usb-ids-registry/internal/config"
	"github.com/stacklok/usb-ids-registry/internal/git"
	"github.com/stacklok/usb-ids-registry/internal/registry"
)

// gitSourceHandler reads registry text from a file in a Git repository
type gitSourceHandler struct {
	name      string
	source    config.GitConfig
	gitClient git.Client
}

// NewGitSourceHandler creates a handler for a Git repository. An empty
// path defaults to usb.ids at the repository root.
func NewGitSourceHandler(name string, source config.GitConfig, gitClient git.Client) SourceHandler {
	if source.Path == "" {
		source.Path = registry.DefaultFileName
	}
	if name == "" {
		name = source.Repository
	}
	return &gitSourceHandler{
		name:      name,
		source:    source,
		gitClient: gitClient,
	}
}

// Name returns the source name
func (h *gitSourceHandler) Name() string {
	return h.name
}

// Fetch clones the repository into memory and returns the configured file
func (h *gitSourceHandler) Fetch(ctx context.Context) ([]byte, error) {
	cloneConfig := &git.CloneConfig{
		URL:    h.source.Repository,
		Branch: h.source.Branch,
		Tag:    h.source.Tag,
		Commit: h.source.Commit,
	}

	startTime := time.Now()
	slog.Info("Starting git clone",
		"source", h.name,
		"repository", cloneConfig.URL,
		"branch", cloneConfig.Branch,
		"tag", cloneConfig.Tag,
		"commit", cloneConfig.Commit)

	repoInfo, err := h.gitClient.Clone(ctx, cloneConfig)
	cloneDuration := time.Since(startTime)
	if err != nil {
		slog.Error("Git clone failed",
			"error", err,
			"repository", cloneConfig.URL,
			"duration", cloneDuration.String())
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	cloneAttrs := []any{
		"repository", cloneConfig.URL,
		"duration", cloneDuration.String(),
		"branch", repoInfo.Branch,
		"commit_sha", repoInfo.CommitSHA,
	}
	slog.Info("Git clone completed", cloneAttrs...)

	defer func() {
		if cleanupErr := h.gitClient.Cleanup(ctx, repoInfo); cleanupErr != nil {
			slog.Error("Failed to cleanup repository", "error", cleanupErr)
		}
	}()

	data, err := h.gitClient.GetFileContent(repoInfo, h.source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s from repository: %w", h.source.Path, err)
	}

	return data, nil
}
