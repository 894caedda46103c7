package inject

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPrepare(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		dir := t.TempDir()
		c := &Config{Dir: dir}
		require.NoError(t, c.Prepare())

		assert.Equal(t, dir, c.AbsDir)
		assert.Equal(t, []string{"./..."}, c.Patterns)
		assert.Equal(t, DefaultRuntimePath, c.RuntimePath)
		assert.Equal(t, filepath.Join(dir, DefaultJournalDir), c.JournalDir)
		assert.Equal(t, 64, c.JournalMB)
		assert.Equal(t, Rewriter{RuntimePath: DefaultRuntimePath}, c.rewriter())
	})

	t.Run("explicit_values", func(t *testing.T) {
		dir := t.TempDir()
		c := &Config{
			Dir:         dir,
			Patterns:    []string{"./internal/..."},
			RuntimePath: "example.com/registry",
			Annotated:   true,
			JournalDir:  "state",
			JournalMB:   16,
		}
		require.NoError(t, c.Prepare())

		assert.Equal(t, []string{"./internal/..."}, c.Patterns)
		assert.Equal(t, filepath.Join(dir, "state"), c.JournalDir)
		assert.Equal(t, 16, c.JournalMB)
		assert.Equal(t, Rewriter{Annotated: true, RuntimePath: "example.com/registry"}, c.rewriter())
	})

	t.Run("absolute_journal", func(t *testing.T) {
		journal := t.TempDir()
		c := &Config{Dir: t.TempDir(), JournalDir: journal}
		require.NoError(t, c.Prepare())
		assert.Equal(t, journal, c.JournalDir)
	})

	t.Run("prepared_twice", func(t *testing.T) {
		c := &Config{Dir: t.TempDir()}
		require.NoError(t, c.Prepare())
		assert.Error(t, c.Prepare())
	})

	errTests := []struct {
		name   string
		config Config
	}{
		{"write_and_diff", Config{Write: true, Diff: true}},
		{"restore_and_write", Config{Restore: true, Write: true}},
		{"restore_and_diff", Config{Restore: true, Diff: true}},
		{"negative_journal_budget", Config{JournalMB: -1}},
		{"missing_dir", Config{Dir: filepath.Join("does", "not", "exist")}},
	}
	for _, tc := range errTests {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.config
			assert.Error(t, c.Prepare())
		})
	}
}
