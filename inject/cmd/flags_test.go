package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatchLens/go-mock-inject/inject"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = append([]string{os.Args[0]}, args...)
	t.Cleanup(func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	})
}

func TestParseFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		withArgs(t)

		cfg, err := ParseFlags()
		require.NoError(t, err)

		assert.Equal(t, ".", cfg.Dir)
		assert.Equal(t, inject.DefaultRuntimePath, cfg.RuntimePath)
		assert.Equal(t, 64, cfg.JournalMB)
		assert.Empty(t, cfg.JournalDir)
		assert.Empty(t, cfg.Patterns)
		assert.False(t, cfg.Write)
		assert.False(t, cfg.Annotated)
		// AbsDir is set by Config.Prepare(), not ParseFlags
		assert.Empty(t, cfg.AbsDir)
	})

	t.Run("flags_and_patterns", func(t *testing.T) {
		proj := t.TempDir()
		withArgs(t, "-dir", proj, "-write", "-annotated", "-debug", "-runtime", "example.com/registry",
			"-journalmb", "16", "./internal/...", "./pkg")

		cfg, err := ParseFlags()
		require.NoError(t, err)

		assert.Equal(t, proj, cfg.Dir)
		assert.True(t, cfg.Write)
		assert.True(t, cfg.Annotated)
		assert.True(t, cfg.Debug)
		assert.Equal(t, "example.com/registry", cfg.RuntimePath)
		assert.Equal(t, 16, cfg.JournalMB)
		assert.Equal(t, []string{"./internal/...", "./pkg"}, cfg.Patterns)
	})

	t.Run("config_file", func(t *testing.T) {
		proj := t.TempDir()
		configFile := filepath.Join(t.TempDir(), "mockinject.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte(`dir: `+proj+`
patterns:
  - ./store/...
runtime: example.com/registry
annotated: true
journal: .state
journal_mb: 32
debug: true
`), 0o644))
		withArgs(t, "-config", configFile, "-diff")

		cfg, err := ParseFlags()
		require.NoError(t, err)

		assert.Equal(t, proj, cfg.Dir)
		assert.Equal(t, []string{"./store/..."}, cfg.Patterns)
		assert.Equal(t, "example.com/registry", cfg.RuntimePath)
		assert.True(t, cfg.Annotated)
		assert.Equal(t, ".state", cfg.JournalDir)
		assert.Equal(t, 32, cfg.JournalMB)
		assert.True(t, cfg.Debug)
		assert.True(t, cfg.Diff)
	})

	t.Run("flags_override_config_file", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "mockinject.yaml")
		require.NoError(t, os.WriteFile(configFile,
			[]byte("runtime: example.com/registry\nannotated: true\njournal_mb: 32\npatterns: [./a/...]\n"), 0o644))
		withArgs(t, "-config", configFile, "-runtime", "example.com/other", "-annotated=false", "./b/...")

		cfg, err := ParseFlags()
		require.NoError(t, err)

		assert.Equal(t, "example.com/other", cfg.RuntimePath)
		assert.False(t, cfg.Annotated)
		assert.Equal(t, 32, cfg.JournalMB)
		assert.Equal(t, []string{"./b/..."}, cfg.Patterns)
	})

	t.Run("missing_config_file", func(t *testing.T) {
		withArgs(t, "-config", filepath.Join(t.TempDir(), "none.yaml"))

		_, err := ParseFlags()
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("invalid_config_file", func(t *testing.T) {
		configFile := filepath.Join(t.TempDir(), "mockinject.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("patterns: {"), 0o644))
		withArgs(t, "-config", configFile)

		_, err := ParseFlags()
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("conflicting_modes", func(t *testing.T) {
		for _, args := range [][]string{
			{"-write", "-diff"},
			{"-restore", "-write"},
			{"-restore", "-diff"},
		} {
			withArgs(t, args...)
			_, err := ParseFlags()
			assert.Error(t, err, args)
		}
	})
}
