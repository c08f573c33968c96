// Package config provides configuration loading and validation for the
// usb.ids registry pipeline.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/usb-ids-registry/internal/telemetry"
)

const (
	// SourceTypeURL is the type for registry text fetched over HTTP(S)
	SourceTypeURL = "url"

	// SourceTypeGit is the type for registry text stored in Git repositories
	SourceTypeGit = "git"

	// SourceTypeFile is the type for registry text stored in local files
	SourceTypeFile = "file"
)

const (
	// SystemdMirrorURL is the raw usb.ids file tracked by the systemd project
	SystemdMirrorURL = "https://raw.githubusercontent.com/systemd/systemd/main/hwdb.d/usb.ids"

	// LinuxUSBMirrorURL is the canonical linux-usb.org publication
	LinuxUSBMirrorURL = "http://www.linux-usb.org/usb.ids"

	// DefaultSnapshotPath is the snapshot location used when none is configured
	DefaultSnapshotPath = "usb.ids.json"

	// DefaultStatusDir is the directory holding status.yaml
	DefaultStatusDir = ".usb-ids"

	// DefaultHTTPTimeout bounds each mirror request
	DefaultHTTPTimeout = 30 * time.Second

	// EnvPrefix is the prefix of environment variables read by the CLI
	EnvPrefix = "USB_IDS"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Sources are the mirrors tried in order; the first success wins
	Sources []SourceConfig `yaml:"sources"`

	// Snapshot is the last-known-good store used when every source fails
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// StatusDir is the directory where sync status is persisted
	StatusDir string `yaml:"statusDir,omitempty"`

	// HTTPTimeout bounds each HTTP request (e.g. "30s")
	HTTPTimeout string `yaml:"httpTimeout,omitempty"`

	// SyncPolicy controls periodic refresh in serve mode
	SyncPolicy *SyncPolicyConfig `yaml:"syncPolicy,omitempty"`

	// Telemetry configures OpenTelemetry export
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// SourceConfig defines a single mirror. Exactly one of URL, Git or File is set.
type SourceConfig struct {
	// Name identifies the source in logs, metrics and status
	Name string `yaml:"name"`

	URL  *URLConfig  `yaml:"url,omitempty"`
	Git  *GitConfig  `yaml:"git,omitempty"`
	File *FileConfig `yaml:"file,omitempty"`
}

// URLConfig defines an HTTP(S) mirror
type URLConfig struct {
	// Endpoint is the full URL of the usb.ids text
	Endpoint string `yaml:"endpoint"`
}

// GitConfig defines Git source settings
type GitConfig struct {
	// Repository is the Git repository URL
	Repository string `yaml:"repository"`

	// Branch is the Git branch to use (mutually exclusive with Tag and Commit)
	Branch string `yaml:"branch,omitempty"`

	// Tag is the Git tag to use (mutually exclusive with Branch and Commit)
	Tag string `yaml:"tag,omitempty"`

	// Commit is the Git commit SHA to use (mutually exclusive with Branch and Tag)
	Commit string `yaml:"commit,omitempty"`

	// Path is the path to the usb.ids file within the repository
	Path string `yaml:"path,omitempty"`
}

// FileConfig defines local file source configuration
type FileConfig struct {
	// Path is the path to a usb.ids file on the local filesystem
	Path string `yaml:"path"`
}

// SnapshotConfig selects the snapshot backend. Path and S3 are mutually exclusive.
type SnapshotConfig struct {
	// Path is a local JSON file
	Path string `yaml:"path,omitempty"`

	// S3 is an S3-compatible object
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config defines an S3-compatible snapshot object
type S3Config struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Key      string `yaml:"key,omitempty"`
	Region   string `yaml:"region,omitempty"`
	UseSSL   bool   `yaml:"useSSL,omitempty"`

	// AccessKeyFile and SecretKeyFile hold credentials; the
	// USB_IDS_S3_ACCESS_KEY and USB_IDS_S3_SECRET_KEY environment variables
	// are used when they are empty
	AccessKeyFile string `yaml:"accessKeyFile,omitempty"`
	SecretKeyFile string `yaml:"secretKeyFile,omitempty"`
}

// SyncPolicyConfig defines synchronization settings
type SyncPolicyConfig struct {
	Interval string `yaml:"interval"`
}

// Default returns the built-in configuration: the systemd mirror, then
// linux-usb.org, with a snapshot next to the working directory.
func Default() *Config {
	return &Config{
		Sources: []SourceConfig{
			{Name: "systemd", URL: &URLConfig{Endpoint: SystemdMirrorURL}},
			{Name: "linux-usb", URL: &URLConfig{Endpoint: LinuxUSBMirrorURL}},
		},
		Snapshot:  SnapshotConfig{Path: DefaultSnapshotPath},
		StatusDir: DefaultStatusDir,
	}
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetStatusDir returns the status directory, using the default if not specified
func (c *Config) GetStatusDir() string {
	if c.StatusDir == "" {
		return DefaultStatusDir
	}
	return c.StatusDir
}

// GetHTTPTimeout returns the parsed HTTP timeout, using the default if not specified
func (c *Config) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout == "" {
		return DefaultHTTPTimeout
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return DefaultHTTPTimeout
	}
	return d
}

// GetSyncInterval returns the refresh interval for serve mode, or zero when
// periodic refresh is disabled
func (c *Config) GetSyncInterval() time.Duration {
	if c.SyncPolicy == nil || c.SyncPolicy.Interval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.SyncPolicy.Interval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate performs validation on the configuration. An empty source list
// is valid and means the snapshot is the only data source.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	sourceNames := make(map[string]bool)
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if sourceNames[src.Name] {
			return fmt.Errorf("sources[%d]: duplicate source name '%s'", i, src.Name)
		}
		sourceNames[src.Name] = true

		if err := validateSourceConfig(src, i); err != nil {
			return err
		}
	}

	if err := c.Snapshot.validate(); err != nil {
		return err
	}

	if c.HTTPTimeout != "" {
		d, err := time.ParseDuration(c.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("httpTimeout must be a valid duration (e.g., '30s'): %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("httpTimeout must be positive, got %s", c.HTTPTimeout)
		}
	}

	if c.SyncPolicy != nil && c.SyncPolicy.Interval != "" {
		d, err := time.ParseDuration(c.SyncPolicy.Interval)
		if err != nil {
			return fmt.Errorf("syncPolicy.interval must be a valid duration (e.g., '30m', '1h'): %w", err)
		}
		if d < 0 {
			return fmt.Errorf("syncPolicy.interval cannot be negative, got %s", c.SyncPolicy.Interval)
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateSourceConfig validates a single source configuration
func validateSourceConfig(src *SourceConfig, index int) error {
	prefix := fmt.Sprintf("sources[%d] (%s)", index, src.Name)

	if err := validateSourceTypeCount(src, prefix); err != nil {
		return err
	}

	switch {
	case src.URL != nil:
		return validateURLConfig(src.URL, prefix)
	case src.Git != nil:
		return validateGitConfig(src.Git, prefix)
	default:
		return validateFileConfig(src.File, prefix)
	}
}

// validateSourceTypeCount ensures exactly one source type is configured
func validateSourceTypeCount(src *SourceConfig, prefix string) error {
	configCount := 0
	if src.URL != nil {
		configCount++
	}
	if src.Git != nil {
		configCount++
	}
	if src.File != nil {
		configCount++
	}

	if configCount == 0 {
		return fmt.Errorf("%s: one of url, git, or file configuration must be specified", prefix)
	}
	if configCount > 1 {
		return fmt.Errorf("%s: only one of url, git, or file configuration may be specified", prefix)
	}

	return nil
}

// validateURLConfig validates URL-specific configuration
func validateURLConfig(u *URLConfig, prefix string) error {
	if u.Endpoint == "" {
		return fmt.Errorf("%s: url.endpoint is required", prefix)
	}
	parsed, err := url.Parse(u.Endpoint)
	if err != nil {
		return fmt.Errorf("%s: url.endpoint is invalid: %w", prefix, err)
	}
	switch parsed.Scheme {
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("%s: url.endpoint is missing a host", prefix)
		}
	case "file":
		if err := CheckFileURL(parsed); err != nil {
			return fmt.Errorf("%s: url.endpoint %w", prefix, err)
		}
	default:
		return fmt.Errorf("%s: url.endpoint must use http, https or file, got %q", prefix, parsed.Scheme)
	}
	return nil
}

// CheckFileURL accepts only absolute file URLs: file:///path or
// file://localhost/path. In file://relative/usb.ids the first segment
// would be parsed as a host.
func CheckFileURL(u *url.URL) error {
	if u.Host != "" && u.Host != "localhost" {
		return fmt.Errorf("must be an absolute file URL (file:///path), got host %q", u.Host)
	}
	if u.Path == "" || u.Path == "/" {
		return fmt.Errorf("must name a file, got %q", u.String())
	}
	return nil
}

// validateGitConfig validates Git-specific configuration
func validateGitConfig(git *GitConfig, prefix string) error {
	if git.Repository == "" {
		return fmt.Errorf("%s: git.repository is required", prefix)
	}

	specified := 0
	for _, ref := range []string{git.Branch, git.Tag, git.Commit} {
		if ref != "" {
			specified++
		}
	}
	if specified > 1 {
		return fmt.Errorf("%s: only one of git.branch, git.tag, or git.commit may be specified", prefix)
	}
	return nil
}

// validateFileConfig validates File-specific configuration
func validateFileConfig(file *FileConfig, prefix string) error {
	if file.Path == "" {
		return fmt.Errorf("%s: file.path is required", prefix)
	}
	return nil
}

// validate checks that at most one snapshot backend is configured
func (s *SnapshotConfig) validate() error {
	if s.Path != "" && s.S3 != nil {
		return fmt.Errorf("snapshot: only one of path or s3 may be specified")
	}
	if s.S3 == nil {
		return nil
	}
	if s.S3.Endpoint == "" {
		return fmt.Errorf("snapshot: s3.endpoint is required")
	}
	if s.S3.Bucket == "" {
		return fmt.Errorf("snapshot: s3.bucket is required")
	}
	return nil
}

// GetType returns the inferred type of the source config based on which field is present
func (s *SourceConfig) GetType() string {
	switch {
	case s.URL != nil:
		return SourceTypeURL
	case s.Git != nil:
		return SourceTypeGit
	case s.File != nil:
		return SourceTypeFile
	default:
		return ""
	}
}

// GetAccessKey returns the S3 access key from AccessKeyFile or USB_IDS_S3_ACCESS_KEY
func (s *S3Config) GetAccessKey() (string, error) {
	return readSecret(s.AccessKeyFile, "USB_IDS_S3_ACCESS_KEY")
}

// GetSecretKey returns the S3 secret key from SecretKeyFile or USB_IDS_S3_SECRET_KEY
func (s *S3Config) GetSecretKey() (string, error) {
	return readSecret(s.SecretKeyFile, "USB_IDS_S3_SECRET_KEY")
}

// readSecret reads a credential from a file, falling back to an environment
// variable. File content has surrounding whitespace trimmed.
func readSecret(path, envVar string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return "", fmt.Errorf("failed to read secret from file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}

	return "", fmt.Errorf("no credential configured: set a key file or the %s environment variable", envVar)
}
