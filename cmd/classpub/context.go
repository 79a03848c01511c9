package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"classpub/internal/config"
	"classpub/internal/fingerprint"
	"classpub/internal/logging"
	"classpub/internal/manifest"
	"classpub/internal/report"
	"classpub/internal/syncer"
	"classpub/internal/workspace"
)

type commandContext struct {
	configFlag    *string
	logFormatFlag *string
	logLevelFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logFormatFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logFormatFlag: logFormatFlag,
		logLevelFlag:  logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logFormatFlag != nil && strings.TrimSpace(*c.logFormatFlag) != "" {
			cfg.Logging.Format = strings.TrimSpace(*c.logFormatFlag)
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger once. Logs go to stderr so stdout
// stays reserved for user-facing lines.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) layout() (workspace.Layout, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return workspace.Layout{}, err
	}
	return workspace.NewLayout(cfg), nil
}

func (c *commandContext) ignore() *workspace.Ignore {
	cfg, err := c.ensureConfig()
	if err != nil {
		return workspace.NewIgnore(nil)
	}
	return workspace.NewIgnore(cfg.Ignore.Patterns)
}

func (c *commandContext) fingerprint() *fingerprint.Service {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fingerprint.New(0)
	}
	return fingerprint.New(cfg.Sync.ChunkSizeBytes)
}

func (c *commandContext) lockTTL() time.Duration {
	cfg, err := c.ensureConfig()
	if err != nil {
		return 30 * time.Second
	}
	return time.Duration(cfg.Sync.LockTTLSeconds) * time.Second
}

func (c *commandContext) strict() bool {
	cfg, err := c.ensureConfig()
	if err != nil {
		return false
	}
	return cfg.General.Strict
}

func (c *commandContext) assumeYes(flagYes bool) bool {
	if flagYes {
		return true
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return false
	}
	return cfg.General.AssumeYes
}

// confirmer picks the prompt implementation: auto-approve under --yes,
// interactive on a terminal, and auto-decline when stdin is a pipe so a
// scripted run never hangs.
func (c *commandContext) confirmer(yes bool, out io.Writer) syncer.Confirmer {
	if yes {
		return syncer.AutoApprove()
	}
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return syncer.NewReaderConfirmer(os.Stdin, out)
	}
	return syncer.AutoDecline()
}

// requireRepoRoot guards every workspace command: without pending/ there
// is nothing to operate on.
func requireRepoRoot(layout workspace.Layout, console *report.Console) error {
	if layout.PendingExists() {
		return nil
	}
	console.Println("❌ This command must be run from the repository root (missing 'pending/').")
	return silentExit(1)
}

// loadManifest reads the manifest, mapping corruption to a printed error
// and exit 1.
func loadManifest(layout workspace.Layout, console *report.Console) (*manifest.Manifest, error) {
	man, err := manifest.Load(layout.ManifestPath())
	if err != nil {
		if errors.Is(err, manifest.ErrCorrupt) {
			console.Printf("❌ %v", err)
			return nil, silentExit(1)
		}
		return nil, err
	}
	return man, nil
}
