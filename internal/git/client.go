// Package git provides in-memory Git clones for reading a single file from
// a version-controlled registry mirror.
package git

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// MaxFileSize bounds the file read from a clone (32MB)
const MaxFileSize = 32 * 1024 * 1024

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client defines the interface for Git operations
type Client interface {
	// Clone clones a repository with the given configuration
	Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error)

	// GetFileContent retrieves the content of a file at the cloned revision
	GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error)

	// Cleanup releases the in-memory repository
	Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error
}

// defaultGitClient implements Client using go-git
type defaultGitClient struct{}

// NewDefaultGitClient creates a new defaultGitClient
func NewDefaultGitClient() Client {
	return &defaultGitClient{}
}

// cloneOptions maps a CloneConfig to go-git options. Branch and tag clones
// are shallow; a commit needs full history to be checked out.
func cloneOptions(config *CloneConfig) *git.CloneOptions {
	opts := &git.CloneOptions{URL: config.URL}
	if config.Commit != "" {
		return opts
	}

	opts.Depth = 1
	switch {
	case config.Branch != "":
		opts.ReferenceName = plumbing.NewBranchReferenceName(config.Branch)
		opts.SingleBranch = true
	case config.Tag != "":
		opts.ReferenceName = plumbing.NewTagReferenceName(config.Tag)
		opts.SingleBranch = true
	}
	return opts
}

// Clone clones a repository into memory and resolves the revision to read
func (*defaultGitClient) Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("repository URL is required")
	}

	// Storer and worktree need separate filesystems
	storerFs := memfs.New()
	objectCache := cache.NewObjectLRUDefault()

	repo, err := git.CloneContext(ctx, filesystem.NewStorage(storerFs, objectCache), memfs.New(), cloneOptions(config))
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	repoInfo := &RepositoryInfo{
		Repository:       repo,
		RemoteURL:        config.URL,
		storerFilesystem: storerFs,
		objectCache:      objectCache,
	}

	if config.Commit != "" {
		if err := checkout(repo, config.Commit); err != nil {
			repoInfo.release()
			return nil, err
		}
	}

	head, err := repo.Head()
	if err != nil {
		repoInfo.release()
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	repoInfo.CommitSHA = head.Hash().String()
	if head.Name().IsBranch() {
		repoInfo.Branch = head.Name().Short()
	}

	return repoInfo, nil
}

func checkout(repo *git.Repository, commit string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := workTree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(commit)}); err != nil {
		return fmt.Errorf("failed to checkout commit %s: %w", commit, err)
	}
	return nil
}

// GetFileContent reads path from the tree of the resolved commit
func (*defaultGitClient) GetFileContent(repoInfo *RepositoryInfo, path string) ([]byte, error) {
	if repoInfo == nil || repoInfo.Repository == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	hash := plumbing.NewHash(repoInfo.CommitSHA)
	if repoInfo.CommitSHA == "" {
		head, err := repoInfo.Repository.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
		}
		hash = head.Hash()
	}

	commit, err := repoInfo.Repository.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}

	file, err := commit.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	if file.Size > MaxFileSize {
		return nil, fmt.Errorf("file %s is %d bytes, exceeds maximum allowed size of %d bytes", path, file.Size, MaxFileSize)
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	content, err := io.ReadAll(io.LimitReader(reader, MaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return content, nil
}

// Cleanup drops the object cache and both in-memory filesystems
func (*defaultGitClient) Cleanup(_ context.Context, repoInfo *RepositoryInfo) error {
	if repoInfo == nil || repoInfo.Repository == nil {
		return fmt.Errorf("repository is nil")
	}

	repoInfo.release()
	slog.Debug("Released in-memory repository", "repository", repoInfo.RemoteURL)
	return nil
}

// release frees the memory held by the clone. go-git keeps it otherwise.
func (r *RepositoryInfo) release() {
	if r.objectCache != nil {
		r.objectCache.Clear()
	}
	if r.Repository != nil {
		if worktree, err := r.Repository.Worktree(); err == nil && worktree.Filesystem != nil {
			_ = util.RemoveAll(worktree.Filesystem, "/")
		}
	}
	if r.storerFilesystem != nil {
		_ = util.RemoveAll(r.storerFilesystem, "/")
	}

	r.objectCache = nil
	r.storerFilesystem = nil
	r.Repository = nil
}
