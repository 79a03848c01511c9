package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains workspace directory configuration. Relative directories are
// resolved against the workspace root during Load.
type Paths struct {
	Root       string `toml:"root"`
	PendingDir string `toml:"pending_dir"`
	PreviewDir string `toml:"preview_dir"`
	LogDir     string `toml:"log_dir"`
}

// General contains behavior toggles shared across commands.
type General struct {
	Strict    bool `toml:"strict"`
	AssumeYes bool `toml:"assume_yes"`
}

// Sync contains tuning knobs for the sync engine.
type Sync struct {
	ChunkSizeBytes int `toml:"chunk_size_bytes"`
	LockTTLSeconds int `toml:"lock_ttl_seconds"`
}

// Ignore lists additional glob patterns excluded from scans. Patterns ending
// with "/" match directories, all others match file names.
type Ignore struct {
	Patterns []string `toml:"patterns"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for classpub.
type Config struct {
	Paths   Paths   `toml:"paths"`
	General General `toml:"general"`
	Sync    Sync    `toml:"sync"`
	Ignore  Ignore  `toml:"ignore"`
	Logging Logging `toml:"logging"`
}

// ManifestName is the release manifest file kept under the pending workspace.
const ManifestName = "RELEASES.txt"

// DefaultFileName is the project-local config file looked up when no
// explicit path is given.
const DefaultFileName = "classpub.toml"

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and resolved against the workspace
// root. It also reports the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("classpub.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return projectPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.Root) == "" {
		c.Paths.Root = "."
	}
	if c.Paths.Root, err = expandPath(c.Paths.Root); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	if c.Paths.Root, err = filepath.Abs(c.Paths.Root); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	c.Paths.PendingDir = resolveUnder(c.Paths.Root, c.Paths.PendingDir, defaultPendingDir)
	c.Paths.PreviewDir = resolveUnder(c.Paths.Root, c.Paths.PreviewDir, defaultPreviewDir)
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
		if !filepath.IsAbs(c.Paths.LogDir) {
			c.Paths.LogDir = filepath.Join(c.Paths.Root, c.Paths.LogDir)
		}
	}
	if c.Sync.ChunkSizeBytes == 0 {
		c.Sync.ChunkSizeBytes = defaultChunkSizeBytes
	}
	if c.Sync.LockTTLSeconds == 0 {
		c.Sync.LockTTLSeconds = defaultLockTTLSeconds
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func resolveUnder(root, value, fallback string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		v = fallback
	}
	if filepath.IsAbs(v) {
		return filepath.Clean(v)
	}
	return filepath.Join(root, v)
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Sync.ChunkSizeBytes < 4096 {
		return errors.New("sync.chunk_size_bytes must be at least 4096")
	}
	if c.Sync.LockTTLSeconds < 1 {
		return errors.New("sync.lock_ttl_seconds must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	for _, pat := range c.Ignore.Patterns {
		if strings.TrimSpace(pat) == "" {
			return errors.New("ignore.patterns must not contain empty entries")
		}
	}
	return nil
}

// ManifestPath returns the absolute location of the release manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.PendingDir, ManifestName)
}

// EnsureDirectories creates the pending workspace and log directory if needed.
// The preview tree is owned by the sync engine and is not created here.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.PendingDir, 0o755); err != nil {
		return fmt.Errorf("ensure pending dir: %w", err)
	}
	if c.Paths.LogDir != "" {
		if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			return fmt.Errorf("ensure log dir: %w", err)
		}
	}
	return nil
}

// Sample returns the embedded sample configuration file contents.
func Sample() string {
	return sampleConfig
}

// WriteSample writes the sample config to the given path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}
