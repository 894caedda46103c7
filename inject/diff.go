package inject

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// UnifiedDiff renders the change from before to after as a unified diff labeled with path.
func UnifiedDiff(path string, before, after []byte) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

// isTerminal reports whether w is a terminal, so diff output can be colorized.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorizeDiff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	var sb strings.Builder
	sb.Grow(len(diff) + len(lines)*(len(ansiRed)+len(ansiReset)))
	for _, line := range lines {
		var color string
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// file headers are left plain
		case strings.HasPrefix(line, "@@"):
			color = ansiCyan
		case strings.HasPrefix(line, "+"):
			color = ansiGreen
		case strings.HasPrefix(line, "-"):
			color = ansiRed
		}
		if color == "" {
			sb.WriteString(line)
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		sb.WriteString(color)
		sb.WriteString(body)
		sb.WriteString(ansiReset)
		if len(body) != len(line) {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// writeDiff writes the diff of one file to w, colorized when w is a terminal.
func writeDiff(w io.Writer, path string, before, after []byte) error {
	diff, err := UnifiedDiff(path, before, after)
	if err != nil {
		return err
	} else if isTerminal(w) {
		diff = colorizeDiff(diff)
	}
	_, err = io.WriteString(w, diff)
	return err
}
