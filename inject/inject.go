package inject

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// declPackageClause lets a lone declaration parse as a file. It is kept on its own line so a leading
// doc comment on the declaration stays attached to it.
const declPackageClause = "package p\n"

// Rewriter configures how declarations are rewritten. The zero value rewrites every eligible
// function and imports the registry from DefaultRuntimePath.
type Rewriter struct {
	// Annotated restricts rewriting to declarations carrying InjectDirective.
	Annotated bool
	// RuntimePath is the import path of the registry package.
	RuntimePath string
}

// InjectDecl rewrites a single top-level declaration with the default Rewriter.
func InjectDecl(src string) string {
	return Rewriter{}.Decl(src)
}

// InjectSource rewrites a whole Go source file with the default Rewriter.
func InjectSource(filename string, src []byte) ([]byte, []string) {
	return Rewriter{}.Source(filename, src)
}

func (r Rewriter) runtimePath() string {
	if r.RuntimePath == "" {
		return DefaultRuntimePath
	}
	return r.RuntimePath
}

// Decl rewrites the source text of a single top-level declaration. Text that does not parse as
// exactly one declaration, or that holds nothing eligible, is returned unchanged. The registry import
// is the caller's responsibility, since a lone declaration has no import section.
func (r Rewriter) Decl(src string) string {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", declPackageClause+src, parser.ParseComments)
	if err != nil || len(file.Decls) != 1 {
		return src
	}
	w := newWalker(r.Annotated)
	w.walk(PackageDecl([]*ast.File{file}))
	if len(w.rewritten[file]) == 0 {
		return src
	}
	var buf bytes.Buffer
	out := printFile(&buf, fset, file)
	return strings.TrimLeft(strings.TrimPrefix(string(out), "package p\n"), "\n")
}

// Source rewrites a Go source file, returning the new source and the keys of the rewritten functions.
// Source that does not parse, or that holds nothing eligible, is returned unchanged with no keys.
func (r Rewriter) Source(filename string, src []byte) ([]byte, []string) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return src, nil
	}
	keys := r.Package(fset, []*ast.File{file})[file]
	if len(keys) == 0 {
		return src, nil
	}
	var buf bytes.Buffer
	return printFile(&buf, fset, file), keys
}

// Package rewrites the parsed files of one package in place and adds the registry import to every
// file that changed. It returns the rewritten function keys per changed file.
func (r Rewriter) Package(fset *token.FileSet, files []*ast.File) map[*ast.File][]string {
	w := newWalker(r.Annotated)
	w.walk(PackageDecl(files))
	for file := range w.rewritten {
		astutil.AddNamedImport(fset, file, MockableImportName, r.runtimePath())
	}
	return w.rewritten
}

// printFile renders file and re-parses the result. The prologue is generated by this package, so
// output that does not parse is a fault in the rewriter.
func printFile(buf *bytes.Buffer, fset *token.FileSet, file *ast.File) []byte {
	buf.Reset()
	if err := format.Node(buf, fset, file); err != nil {
		panic(internalError("rewritten file unprintable: %v", err))
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		panic(internalError("rewritten file unparsable: %v\n%s", err, buf.String()))
	}
	return out
}
