package inject

import (
	"fmt"
	"go/build"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileExists reports whether the named file exists.
func FileExists(filename string) bool {
	if _, err := os.Stat(filename); err != nil {
		return !os.IsNotExist(err)
	}
	return true
}

func replaceFile(source, destination string) error {
	if _, err := os.Stat(destination); err == nil {
		if err = os.Remove(destination); err != nil {
			return err
		}
	}

	// Rename the source to the destination (requires same filesystem)
	return os.Rename(source, destination)
}

// writeFileReplace writes data next to path and swaps it into place, so an interrupted run never
// leaves a half written source file. The existing file mode is kept.
func writeFileReplace(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp := path + ".mockinject.tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return fmt.Errorf("write failure %s: %w", tmp, err)
	} else if err := replaceFile(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace failure %s: %w", path, err)
	}
	return nil
}

// sourceFileFilter reports whether a Go file should be rewritten: test files are skipped, they hold
// the mocks rather than the mocked code, as is anything the default build context would ignore.
func sourceFileFilter(path string) bool {
	dir, name := filepath.Split(path)
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return false
	}
	match, err := build.Default.MatchFile(filepath.Clean(dir), name)
	return err == nil && match
}
