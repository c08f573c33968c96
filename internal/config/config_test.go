package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/usb-ids-registry/internal/telemetry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		yamlContent string
		wantConfig  *Config
		wantErr     string
	}{
		{
			name: "all source types",
			yamlContent: `sources:
  - name: systemd
    url:
      endpoint: https://raw.githubusercontent.com/systemd/systemd/main/hwdb.d/usb.ids
  - name: mirror-repo
    git:
      repository: https://github.com/example/usb-ids.git
      branch: main
      path: hwdb.d/usb.ids
  - name: local
    file:
      path: /data/usb.ids
snapshot:
  path: /var/lib/usb-ids/usb.ids.json
statusDir: /var/lib/usb-ids
httpTimeout: 10s
syncPolicy:
  interval: 1h`,
			wantConfig: &Config{
				Sources: []SourceConfig{
					{Name: "systemd", URL: &URLConfig{Endpoint: SystemdMirrorURL}},
					{Name: "mirror-repo", Git: &GitConfig{
						Repository: "https://github.com/example/usb-ids.git",
						Branch:     "main",
						Path:       "hwdb.d/usb.ids",
					}},
					{Name: "local", File: &FileConfig{Path: "/data/usb.ids"}},
				},
				Snapshot:    SnapshotConfig{Path: "/var/lib/usb-ids/usb.ids.json"},
				StatusDir:   "/var/lib/usb-ids",
				HTTPTimeout: "10s",
				SyncPolicy:  &SyncPolicyConfig{Interval: "1h"},
			},
		},
		{
			name: "s3 snapshot with no sources",
			yamlContent: `snapshot:
  s3:
    endpoint: minio.local:9000
    bucket: registry
    key: usb.ids.json`,
			wantConfig: &Config{
				Snapshot: SnapshotConfig{S3: &S3Config{
					Endpoint: "minio.local:9000",
					Bucket:   "registry",
					Key:      "usb.ids.json",
				}},
			},
		},
		{
			name: "telemetry section",
			yamlContent: `sources:
  - name: local
    file:
      path: usb.ids
telemetry:
  enabled: true
  endpoint: collector:4318
  metrics:
    enabled: true`,
			wantConfig: &Config{
				Sources: []SourceConfig{{Name: "local", File: &FileConfig{Path: "usb.ids"}}},
				Telemetry: &telemetry.Config{
					Enabled:  true,
					Endpoint: "collector:4318",
					Metrics:  &telemetry.MetricsConfig{Enabled: true},
				},
			},
		},
		{
			name:        "invalid yaml",
			yamlContent: "sources: [",
			wantErr:     "failed to parse YAML config",
		},
		{
			name: "source without name",
			yamlContent: `sources:
  - file:
      path: usb.ids`,
			wantErr: "sources[0]: name is required",
		},
		{
			name: "duplicate source names",
			yamlContent: `sources:
  - name: a
    file:
      path: one.ids
  - name: a
    file:
      path: two.ids`,
			wantErr: "duplicate source name 'a'",
		},
		{
			name: "source without a type",
			yamlContent: `sources:
  - name: empty`,
			wantErr: "one of url, git, or file configuration must be specified",
		},
		{
			name: "source with two types",
			yamlContent: `sources:
  - name: both
    url:
      endpoint: http://example.com/usb.ids
    file:
      path: usb.ids`,
			wantErr: "only one of url, git, or file configuration may be specified",
		},
		{
			name: "unsupported url scheme",
			yamlContent: `sources:
  - name: ftp
    url:
      endpoint: ftp://example.com/usb.ids`,
			wantErr: "must use http, https or file",
		},
		{
			name: "git with branch and tag",
			yamlContent: `sources:
  - name: repo
    git:
      repository: https://github.com/example/usb-ids.git
      branch: main
      tag: v1`,
			wantErr: "only one of git.branch, git.tag, or git.commit may be specified",
		},
		{
			name: "both snapshot backends",
			yamlContent: `snapshot:
  path: usb.ids.json
  s3:
    endpoint: minio.local:9000
    bucket: registry`,
			wantErr: "only one of path or s3 may be specified",
		},
		{
			name: "s3 without bucket",
			yamlContent: `snapshot:
  s3:
    endpoint: minio.local:9000`,
			wantErr: "s3.bucket is required",
		},
		{
			name:        "bad http timeout",
			yamlContent: `httpTimeout: soon`,
			wantErr:     "httpTimeout must be a valid duration",
		},
		{
			name:        "negative http timeout",
			yamlContent: `httpTimeout: -1s`,
			wantErr:     "httpTimeout must be positive",
		},
		{
			name: "bad sync interval",
			yamlContent: `syncPolicy:
  interval: often`,
			wantErr: "syncPolicy.interval must be a valid duration",
		},
		{
			name: "relative file url",
			yamlContent: `sources:
  - name: local
    url:
      endpoint: file://relative/usb.ids`,
			wantErr: "must be an absolute file URL",
		},
		{
			name: "negative sync interval",
			yamlContent: `syncPolicy:
  interval: -5m`,
			wantErr: "syncPolicy.interval cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.yamlContent)

			cfg, err := LoadConfig(WithConfigPath(path))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, cfg)
		})
	}
}

func TestLoadConfig_PathErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")

	_, err = LoadConfig(WithConfigPath(""))
	require.Error(t, err)

	_, err = LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate symlinks")
}

func TestWithConfigPath_Symlink(t *testing.T) {
	t.Parallel()

	target := writeConfig(t, "sources: []\n")
	link := filepath.Join(t.TempDir(), "link.yaml")
	require.NoError(t, os.Symlink(target, link))

	cfg, err := LoadConfig(WithConfigPath(link))
	require.NoError(t, err)
	assert.Empty(t, cfg.Sources)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, SystemdMirrorURL, cfg.Sources[0].URL.Endpoint)
	assert.Equal(t, LinuxUSBMirrorURL, cfg.Sources[1].URL.Endpoint)
	assert.Equal(t, DefaultSnapshotPath, cfg.Snapshot.Path)
	assert.Equal(t, DefaultHTTPTimeout, cfg.GetHTTPTimeout())
	assert.Zero(t, cfg.GetSyncInterval())
}

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	cfg := &Config{HTTPTimeout: "5s", SyncPolicy: &SyncPolicyConfig{Interval: "15m"}}

	assert.Equal(t, 5*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, 15*time.Minute, cfg.GetSyncInterval())
	assert.Equal(t, DefaultStatusDir, cfg.GetStatusDir())

	cfg.StatusDir = "/tmp/status"
	assert.Equal(t, "/tmp/status", cfg.GetStatusDir())

	cfg.SyncPolicy.Interval = "-1h"
	assert.Zero(t, cfg.GetSyncInterval(), "a negative interval never reaches the coordinator")
}

func TestSourceConfig_GetType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SourceTypeURL, (&SourceConfig{URL: &URLConfig{}}).GetType())
	assert.Equal(t, SourceTypeGit, (&SourceConfig{Git: &GitConfig{}}).GetType())
	assert.Equal(t, SourceTypeFile, (&SourceConfig{File: &FileConfig{}}).GetType())
	assert.Empty(t, (&SourceConfig{}).GetType())
}

func TestS3Config_Credentials(t *testing.T) {
	dir := t.TempDir()
	accessFile := filepath.Join(dir, "access")
	require.NoError(t, os.WriteFile(accessFile, []byte("  AKIAEXAMPLE\n"), 0o600))

	t.Setenv("USB_IDS_S3_SECRET_KEY", "from-env")

	cfg := &S3Config{AccessKeyFile: accessFile}

	accessKey, err := cfg.GetAccessKey()
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", accessKey)

	secretKey, err := cfg.GetSecretKey()
	require.NoError(t, err)
	assert.Equal(t, "from-env", secretKey)

	t.Setenv("USB_IDS_S3_SECRET_KEY", "")
	_, err = cfg.GetSecretKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USB_IDS_S3_SECRET_KEY")

	_, err = (&S3Config{AccessKeyFile: filepath.Join(dir, "missing")}).GetAccessKey()
	require.Error(t, err)
}
