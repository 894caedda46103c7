package inject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-analyze/bulk"
	"golang.org/x/tools/go/packages"
)

// Injector rewrites the source files of a project according to its Config.
type Injector struct {
	Config *Config
	// Out receives diffs and key listings, os.Stdout when nil.
	Out io.Writer

	journal *Journal
	dirLock *stripedMutex
	outLock sync.Mutex
}

// NewInjector creates an Injector for config. The config is prepared by Run.
func NewInjector(config *Config) *Injector {
	return &Injector{
		Config:  config,
		Out:     os.Stdout,
		dirLock: newDefaultStripedMutex(),
	}
}

// Run executes the configured mode: restore the journaled originals, or rewrite every source file of
// the configured package patterns, writing them, printing their diffs, or listing the rewritten keys.
func (i *Injector) Run(ctx context.Context) error {
	if err := i.Config.Prepare(); err != nil {
		return err
	}

	if i.Config.Restore {
		return i.Restore()
	}

	modPath, err := CheckModule(i.Config.AbsDir, i.Config.RuntimePath)
	if err != nil {
		return err
	}
	paths, err := i.loadFiles(ctx)
	if err != nil {
		return err
	} else if len(paths) == 0 {
		log.Printf("No source files matched in %s, exiting", modPath)
		return nil
	}
	log.Printf("Source files in %s: %d", modPath, len(paths))

	if i.Config.Write {
		journal, err := OpenJournal(i.Config.JournalDir, i.Config.JournalMB, i.Config.Debug)
		if err != nil {
			return err
		}
		i.journal = journal
		defer func() {
			if err := journal.Close(); err != nil {
				log.Printf("%sjournal close failed: %v", ErrorLogPrefix, err)
			}
			i.journal = nil
		}()
	}

	rewritten, err := i.InjectFiles(ctx, paths)
	if err != nil {
		return err
	}
	var funcCount int
	for _, keys := range rewritten {
		funcCount += len(keys)
	}
	log.Printf("Rewritten functions: %d, in files: %d", funcCount, len(rewritten))
	return nil
}

// Restore writes the journaled original of every file rewritten by earlier runs back into place.
func (i *Injector) Restore() error {
	journal, err := OpenJournal(i.Config.JournalDir, i.Config.JournalMB, i.Config.Debug)
	if err != nil {
		return err
	}
	restored, restoreErr := journal.Restore()
	log.Printf("Restored files: %d", restored)
	return errors.Join(restoreErr, journal.Close())
}

// loadFiles resolves the configured package patterns to the source files eligible for rewriting.
func (i *Injector) loadFiles(ctx context.Context) ([]string, error) {
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Dir:     i.Config.AbsDir,
		Mode:    packages.NeedName | packages.NeedFiles,
	}, i.Config.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages failed: %w", err)
	} else if packages.PrintErrors(pkgs) > 0 {
		return nil, errors.New("project packages contain errors")
	}

	var files []string
	for _, pkg := range pkgs {
		if pkg.PkgPath == i.Config.RuntimePath {
			continue // the registry can not intercept its own calls
		}
		files = append(files, pkg.GoFiles...)
	}
	files = bulk.MapKeysSlice(bulk.SliceToSet(bulk.SliceFilter(sourceFileFilter, files)))
	slices.Sort(files)
	return files, nil
}

// InjectFiles rewrites the given source files, handling each directory concurrently. Files sharing a
// directory and package clause are rewritten together, so receiver types and the interfaces they are
// asserted to implement may be declared in different files. It returns the rewritten function keys per
// changed file.
func (i *Injector) InjectFiles(ctx context.Context, paths []string) (map[string][]string, error) {
	byDir := bulk.SliceToGroupsBy(filepath.Dir, paths)
	dirs := bulk.MapKeysSlice(byDir)
	slices.Sort(dirs)

	var resultLock sync.Mutex
	result := make(map[string][]string)
	errGroup := ErrGroupLimitCPU()
	for _, dir := range dirs {
		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rewritten, err := i.injectDir(dir, byDir[dir])
			if err != nil {
				return err
			}
			resultLock.Lock()
			defer resultLock.Unlock()
			for path, keys := range rewritten {
				result[path] = keys
			}
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

type sourceFile struct {
	path     string
	original []byte
	ast      *ast.File
}

func (i *Injector) injectDir(dir string, paths []string) (map[string][]string, error) {
	lock := i.dirLock.Lock(dir)
	defer lock.Unlock()

	if pkgPath, err := PackageImportPath(dir); err == nil && pkgPath == i.Config.RuntimePath {
		log.Printf("WARN: skipping %s, it provides the runtime package %s", dir, pkgPath)
		return nil, nil
	}

	fset := token.NewFileSet()
	sources := make([]*sourceFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read failure %s: %w", path, err)
		}
		f, err := parser.ParseFile(fset, path, data, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse failure %s: %w", path, err)
		}
		sources = append(sources, &sourceFile{path: path, original: data, ast: f})
	}

	rewriter := i.Config.rewriter()
	result := make(map[string][]string)
	var buf bytes.Buffer
	byPackage := bulk.SliceToGroupsBy(func(sf *sourceFile) string { return sf.ast.Name.Name }, sources)
	for _, pkgSources := range byPackage {
		files := make([]*ast.File, len(pkgSources))
		for idx, sf := range pkgSources {
			files[idx] = sf.ast
		}
		rewritten := rewriter.Package(fset, files)
		for _, sf := range pkgSources {
			keys := rewritten[sf.ast]
			if len(keys) == 0 {
				continue
			}
			if err := i.commit(sf, printFile(&buf, fset, sf.ast), keys); err != nil {
				return nil, err
			}
			result[sf.path] = keys
		}
	}
	return result, nil
}

// commit delivers the rewritten content of one file according to the run mode.
func (i *Injector) commit(sf *sourceFile, rewritten []byte, keys []string) error {
	if i.Config.Write {
		if i.journal != nil {
			if err := i.journal.Record(sf.path, sf.original, rewritten, keys); err != nil {
				return fmt.Errorf("journal failure %s: %w", sf.path, err)
			}
		}
		return writeFileReplace(sf.path, rewritten)
	}

	i.outLock.Lock()
	defer i.outLock.Unlock()
	out := i.Out
	if out == nil {
		out = os.Stdout
	}
	relPath := sf.path
	if rel, err := filepath.Rel(i.Config.AbsDir, sf.path); err == nil {
		relPath = filepath.ToSlash(rel)
	}
	if i.Config.Diff {
		return writeDiff(out, relPath, sf.original, rewritten)
	}
	for _, key := range keys {
		if _, err := fmt.Fprintf(out, "%s: %s\n", relPath, key); err != nil {
			return err
		}
	}
	return nil
}
