package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PatchLens/go-mock-inject/inject"
)

// ParseFlags builds Config from a YAML config file, when given with -config, and the command line flags.
// Flags set explicitly override values from the config file. Remaining arguments are package patterns.
func ParseFlags() (*inject.Config, error) {
	config := &inject.Config{}

	// Define all standard flags
	configFile := flag.String("config", "", "Path to a YAML config file, explicitly set flags take precedence")
	dir := flag.String("dir", ".", "Path to the project directory")
	write := flag.Bool("write", false, "Write rewritten files in place, recording the originals in the journal")
	diff := flag.Bool("diff", false, "Print unified diffs instead of writing files")
	restore := flag.Bool("restore", false, "Restore the files recorded in the journal")
	annotated := flag.Bool("annotated", false, "Only rewrite functions and types marked with "+inject.InjectDirective)
	runtimePath := flag.String("runtime", inject.DefaultRuntimePath, "Import path of the mockable registry package")
	journalDir := flag.String("journal", "", "Journal directory, default "+inject.DefaultJournalDir+" within the project")
	journalMB := flag.Int("journalmb", 64, "Journal memory budget in MB")
	debug := flag.Bool("debug", false, "Log journal storage diagnostics")

	flag.Parse()

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("read config %s failed: %w", *configFile, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config %s failed: %w", *configFile, err)
		}
	}

	// Flags apply when set, or when the config file left the value empty
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["dir"] || config.Dir == "" {
		config.Dir = *dir
	}
	if set["annotated"] {
		config.Annotated = *annotated
	}
	if set["debug"] {
		config.Debug = *debug
	}
	if set["runtime"] || config.RuntimePath == "" {
		config.RuntimePath = *runtimePath
	}
	if set["journal"] || config.JournalDir == "" {
		config.JournalDir = *journalDir
	}
	if set["journalmb"] || config.JournalMB == 0 {
		config.JournalMB = *journalMB
	}
	if args := flag.Args(); len(args) > 0 {
		config.Patterns = args
	}
	config.Write = *write
	config.Diff = *diff
	config.Restore = *restore

	// Validate mode flags
	if config.Write && config.Diff {
		return nil, errors.New("-write and -diff are mutually exclusive")
	} else if config.Restore && (config.Write || config.Diff) {
		return nil, errors.New("-restore can not be combined with -write or -diff")
	}

	return config, nil
}
