package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/usb-ids-registry/internal/registry"
	"github.com/stacklok/usb-ids-registry/internal/resolver"
	"github.com/stacklok/usb-ids-registry/internal/status"
)

const sampleText = `# comment
1d6b  Linux Foundation
	0001  1.1 root hub
	0002  2.0 root hub
8087  Intel Corp.
`

type workspace struct {
	dir          string
	configPath   string
	snapshotPath string
	statusDir    string
}

// newWorkspace writes a config whose only source is a local usb.ids file.
// A missing mirror file makes the source fail.
func newWorkspace(t *testing.T, mirrorText *string) *workspace {
	t.Helper()

	dir := t.TempDir()
	w := &workspace{
		dir:          dir,
		configPath:   filepath.Join(dir, "config.yaml"),
		snapshotPath: filepath.Join(dir, "snapshot", "usb.ids.json"),
		statusDir:    filepath.Join(dir, "status"),
	}

	mirror := filepath.Join(dir, "usb.ids")
	if mirrorText != nil {
		require.NoError(t, os.WriteFile(mirror, []byte(*mirrorText), 0o600))
	}

	cfg := fmt.Sprintf(`sources:
  - name: local
    file:
      path: %s
snapshot:
  path: %s
statusDir: %s
`, mirror, w.snapshotPath, w.statusDir)
	require.NoError(t, os.WriteFile(w.configPath, []byte(cfg), 0o600))
	return w
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), err
}

func ptr(s string) *string {
	return &s
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["platform"])

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
}

func TestFetchCommand_PrintsRegistry(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, ptr(sampleText))

	out, err := execute(t, "fetch", "--config", w.configPath)
	require.NoError(t, err)

	var reg registry.Registry
	require.NoError(t, json.Unmarshal([]byte(out), &reg))
	assert.Equal(t, registry.Parse(sampleText), registry.Normalize(reg))

	_, err = os.Stat(w.snapshotPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "fetch without --save must not write the snapshot")
}

func TestFetchCommand_SaveThenOffline(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, ptr(sampleText))

	_, err := execute(t, "fetch", "--config", w.configPath, "--save")
	require.NoError(t, err)
	require.FileExists(t, w.snapshotPath)

	output := filepath.Join(w.dir, "out", "registry.json")
	_, err = execute(t, "fetch", "--config", w.configPath, "--offline", "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var reg registry.Registry
	require.NoError(t, json.Unmarshal(data, &reg))
	assert.Equal(t, registry.Parse(sampleText), registry.Normalize(reg))
}

func TestFetchCommand_NoDataAvailable(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, nil)

	out, err := execute(t, "fetch", "--config", w.configPath)

	require.Error(t, err)
	assert.ErrorIs(t, err, resolver.ErrNoDataAvailable)
	assert.Empty(t, out, "nothing is printed when no data is available")
}

func TestSyncCommand_RecordsStatus(t *testing.T) {
	t.Parallel()

	w := newWorkspace(t, ptr(sampleText))

	out, err := execute(t, "sync", "--config", w.configPath)
	require.NoError(t, err)
	assert.Empty(t, out)
	require.FileExists(t, w.snapshotPath)

	data, err := os.ReadFile(filepath.Join(w.statusDir, status.StatusFileName))
	require.NoError(t, err)

	var st status.SyncStatus
	require.NoError(t, yaml.Unmarshal(data, &st))
	assert.Equal(t, status.SyncPhaseComplete, st.Phase)
	assert.Equal(t, "network", st.Provenance)
	assert.Equal(t, "local", st.Source)
	assert.Equal(t, 2, st.VendorCount)
	assert.Equal(t, 2, st.DeviceCount)
	assert.NotEmpty(t, st.LastSyncHash)
}

func TestFetchCommand_InvalidConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: broken\n"), 0o600))

	_, err := execute(t, "fetch", "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
