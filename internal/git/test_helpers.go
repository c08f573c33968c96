package git

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// TestRepo is an on-disk repository built commit by commit in tests
type TestRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

// NewTestRepo initializes an empty repository in a test temp directory
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err, "init repository")
	return &TestRepo{t: t, dir: dir, repo: repo}
}

// CreateTestRepo returns the directory of a repository with one commit
// holding files
func CreateTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	r := NewTestRepo(t)
	r.Commit("Initial commit", files)
	return r.Dir()
}

// Dir is the repository path, usable as a clone URL
func (r *TestRepo) Dir() string {
	return r.dir
}

// Commit writes files into the worktree, commits them and returns the commit SHA
func (r *TestRepo) Commit(message string, files map[string]string) string {
	r.t.Helper()

	wt, err := r.repo.Worktree()
	require.NoError(r.t, err, "open worktree")

	for name, content := range files {
		require.NoError(r.t, util.WriteFile(wt.Filesystem, name, []byte(content), 0o644), "write %s", name)
		_, err := wt.Add(name)
		require.NoError(r.t, err, "stage %s", name)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Test Author", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(r.t, err, "commit")
	return hash.String()
}
