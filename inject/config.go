package inject

import (
	"errors"
	"fmt"
	"path/filepath"
)

// DefaultJournalDir is the journal location, relative to the project directory, when none is configured.
const DefaultJournalDir = ".mockinject"

// Config controls a project wide injection run.
type Config struct {
	Dir         string   `yaml:"dir"`
	Patterns    []string `yaml:"patterns"`
	RuntimePath string   `yaml:"runtime"`
	Annotated   bool     `yaml:"annotated"`
	// Run mode, only ever set from flags
	Write, Diff, Restore bool `yaml:"-"`
	// Journal location and memory budget, used by -write and -restore
	JournalDir string `yaml:"journal"`
	JournalMB  int    `yaml:"journal_mb"`
	// Debug logs journal storage diagnostics
	Debug bool `yaml:"debug"`
	// Computed fields
	AbsDir string `yaml:"-"`
	// Internal state tracking
	prepared bool
}

// Prepare validates the configuration and fills in defaults.
func (c *Config) Prepare() error {
	if c.prepared {
		return errors.New("config has already been prepared")
	}

	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Write && c.Diff {
		return errors.New("-write and -diff are mutually exclusive")
	} else if c.Restore && (c.Write || c.Diff) {
		return errors.New("-restore can not be combined with -write or -diff")
	} else if c.JournalMB < 0 {
		return fmt.Errorf("invalid journal memory budget: %d", c.JournalMB)
	}

	absDir, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("error resolving project directory: %w", err)
	} else if !FileExists(absDir) {
		return fmt.Errorf("project directory does not exist: %s", absDir)
	}
	c.AbsDir = absDir

	if len(c.Patterns) == 0 {
		c.Patterns = []string{"./..."}
	}
	if c.RuntimePath == "" {
		c.RuntimePath = DefaultRuntimePath
	}
	if c.JournalDir == "" {
		c.JournalDir = filepath.Join(absDir, DefaultJournalDir)
	} else if !filepath.IsAbs(c.JournalDir) {
		c.JournalDir = filepath.Join(absDir, c.JournalDir)
	}
	if c.JournalMB == 0 {
		c.JournalMB = 64
	}

	c.prepared = true
	return nil
}

func (c *Config) rewriter() Rewriter {
	return Rewriter{Annotated: c.Annotated, RuntimePath: c.RuntimePath}
}
