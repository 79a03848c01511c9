package config

const (
	defaultPendingDir     = "pending"
	defaultPreviewDir     = "preview"
	defaultChunkSizeBytes = 1 << 20
	defaultLockTTLSeconds = 30
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// DefaultIgnoredFiles are file names excluded from every workspace scan.
var DefaultIgnoredFiles = []string{
	".DS_Store",
	".gitignore",
	".gitattributes",
	ManifestName,
}

// DefaultIgnoredDirs are directory names excluded from every workspace scan.
var DefaultIgnoredDirs = []string{
	".ipynb_checkpoints",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root:       ".",
			PendingDir: defaultPendingDir,
			PreviewDir: defaultPreviewDir,
		},
		Sync: Sync{
			ChunkSizeBytes: defaultChunkSizeBytes,
			LockTTLSeconds: defaultLockTTLSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
