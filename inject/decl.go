package inject

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/go-analyze/bulk"
)

// InjectDirective marks a function, or a type and all of its methods, for injection in annotated mode.
const InjectDirective = "//mock:inject"

// DeclKind is the closed set of declaration shapes the tree walker dispatches on.
type DeclKind uint8

const (
	// DeclOther is any declaration the walker neither rewrites nor descends into.
	DeclOther DeclKind = iota
	// DeclModule owns an ordered list of child declarations (a package or a file).
	DeclModule
	// DeclFunc is a function declared without a receiver.
	DeclFunc
	// DeclImpl is a group of methods declared on a single receiver type.
	DeclImpl
)

func (k DeclKind) String() string {
	switch k {
	case DeclOther:
		return "other"
	case DeclModule:
		return "module"
	case DeclFunc:
		return "func"
	case DeclImpl:
		return "impl"
	default:
		return fmt.Sprintf("DeclKind(%d)", k)
	}
}

// Decl is a node of the declaration tree.
type Decl struct {
	Kind DeclKind
	// File is set for modules representing a single source file.
	File *ast.File
	// Children is nil for opaque modules, such as generated files, which are left as authored.
	Children []*Decl
	Func     *ast.FuncDecl
	Impl     *ImplBlock
}

// ImplBlock groups the methods of a receiver type. Trait is set to the asserted interface when the
// methods belong to that interface's method set.
type ImplBlock struct {
	Target    string
	Trait     string
	Annotated bool
	Methods   []*ast.FuncDecl
}

// PackageDecl builds the declaration tree for the parsed files of a single package.
// Interface assertions and type annotations are resolved across all files.
func PackageDecl(files []*ast.File) *Decl {
	idx := newTraitIndex(files)
	pkg := &Decl{Kind: DeclModule, Children: make([]*Decl, 0, len(files))}
	for _, f := range files {
		pkg.Children = append(pkg.Children, idx.fileDecl(f))
	}
	return pkg
}

func (idx *traitIndex) fileDecl(f *ast.File) *Decl {
	d := &Decl{Kind: DeclModule, File: f}
	if ast.IsGenerated(f) {
		return d
	}
	methodsByType := make(map[string][]*ast.FuncDecl)
	for _, decl := range f.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Recv != nil && len(fd.Recv.List) > 0 {
			if target := receiverTypeName(fd.Recv.List[0].Type); target != "" {
				methodsByType[target] = append(methodsByType[target], fd)
			}
		}
	}

	d.Children = make([]*Decl, 0, len(f.Decls))
	emitted := make(map[string]bool)
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			d.Children = append(d.Children, &Decl{Kind: DeclOther})
			continue
		} else if fd.Recv == nil {
			d.Children = append(d.Children, &Decl{Kind: DeclFunc, Func: fd})
			continue
		}
		var target string
		if len(fd.Recv.List) > 0 {
			target = receiverTypeName(fd.Recv.List[0].Type)
		}
		if target == "" {
			d.Children = append(d.Children, &Decl{Kind: DeclOther})
			continue
		} else if emitted[target] {
			continue // the whole group was emitted at the first method
		}
		emitted[target] = true
		for _, blk := range idx.implBlocks(target, methodsByType[target]) {
			d.Children = append(d.Children, &Decl{Kind: DeclImpl, Impl: blk})
		}
	}
	return d
}

// traitIndex holds the package-wide facts needed to tell inherent methods from interface implementations.
type traitIndex struct {
	interfaces map[string]*ast.InterfaceType
	assertions map[string][]string // receiver type -> asserted interfaces, in declaration order
	annotated  map[string]bool
}

func newTraitIndex(files []*ast.File) *traitIndex {
	idx := &traitIndex{
		interfaces: make(map[string]*ast.InterfaceType),
		assertions: make(map[string][]string),
		annotated:  make(map[string]bool),
	}
	for _, f := range files {
		for _, decl := range f.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			switch genDecl.Tok {
			case token.TYPE:
				for _, spec := range genDecl.Specs {
					ts := spec.(*ast.TypeSpec)
					if it, ok := ts.Type.(*ast.InterfaceType); ok {
						idx.interfaces[ts.Name.Name] = it
					}
					if hasDirective(genDecl.Doc, InjectDirective) || hasDirective(ts.Doc, InjectDirective) {
						idx.annotated[ts.Name.Name] = true
					}
				}
			case token.VAR:
				for _, spec := range genDecl.Specs {
					idx.addAssertion(spec.(*ast.ValueSpec))
				}
			}
		}
	}
	return idx
}

// addAssertion records compile time interface checks of the form `var _ Iface = (*T)(nil)`.
func (idx *traitIndex) addAssertion(vs *ast.ValueSpec) {
	if vs.Type == nil || len(vs.Values) == 0 {
		return
	}
	for _, name := range vs.Names {
		if name.Name != "_" {
			return
		}
	}
	iface := typeExprName(vs.Type)
	if iface == "" {
		return
	}
	for _, val := range vs.Values {
		if target := assertedTypeName(val); target != "" {
			idx.assertions[target] = append(idx.assertions[target], iface)
		}
	}
}

// methodSet resolves the method names of a package-local interface. The bool is false when the
// interface, or any interface it embeds, is declared outside of the package.
func (idx *traitIndex) methodSet(iface string, seen map[string]bool) (map[string]bool, bool) {
	it, ok := idx.interfaces[iface]
	if !ok || seen[iface] {
		return nil, ok
	}
	seen[iface] = true
	set := make(map[string]bool)
	if it.Methods == nil {
		return set, true
	}
	for _, field := range it.Methods.List {
		if len(field.Names) > 0 {
			for _, name := range field.Names {
				set[name.Name] = true
			}
			continue
		}
		embedded, ok := field.Type.(*ast.Ident)
		if !ok {
			return nil, false
		}
		sub, ok := idx.methodSet(embedded.Name, seen)
		if !ok {
			return nil, false
		}
		for name := range sub {
			set[name] = true
		}
	}
	return set, true
}

// implBlocks splits the methods of target into one block per asserted interface followed by the
// inherent block. Methods of an interface that cannot be resolved are all claimed by it.
func (idx *traitIndex) implBlocks(target string, methods []*ast.FuncDecl) []*ImplBlock {
	annotated := idx.annotated[target]
	claimed := make(map[*ast.FuncDecl]bool)
	var blocks []*ImplBlock
	for _, trait := range idx.assertions[target] {
		set, resolved := idx.methodSet(trait, make(map[string]bool))
		blk := &ImplBlock{Target: target, Trait: trait, Annotated: annotated}
		for _, m := range methods {
			if !claimed[m] && (!resolved || set[m.Name.Name]) {
				claimed[m] = true
				blk.Methods = append(blk.Methods, m)
			}
		}
		if len(blk.Methods) > 0 {
			blocks = append(blocks, blk)
		}
	}
	inherent := bulk.SliceFilter(func(m *ast.FuncDecl) bool {
		return !claimed[m]
	}, methods)
	if len(inherent) > 0 {
		blocks = append(blocks, &ImplBlock{Target: target, Annotated: annotated, Methods: inherent})
	}
	return blocks
}

// typeExprName renders a named type reference such as Stringer, fmt.Stringer or Set[int] without its type arguments.
func typeExprName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return pkg.Name + "." + t.Sel.Name
		}
	case *ast.IndexExpr:
		return typeExprName(t.X)
	case *ast.IndexListExpr:
		return typeExprName(t.X)
	case *ast.ParenExpr:
		return typeExprName(t.X)
	}
	return ""
}

// assertedTypeName extracts the local type name from the value side of an interface assertion:
// T{}, &T{}, (*T)(nil), T(v) or new(T).
func assertedTypeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.CompositeLit:
		return localTypeName(e.Type)
	case *ast.UnaryExpr:
		if e.Op == token.AND {
			return assertedTypeName(e.X)
		}
	case *ast.ParenExpr:
		return assertedTypeName(e.X)
	case *ast.CallExpr:
		if fn, ok := e.Fun.(*ast.Ident); ok && fn.Name == "new" && len(e.Args) == 1 {
			return localTypeName(e.Args[0])
		}
		return localTypeName(e.Fun)
	}
	return ""
}

func localTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return localTypeName(t.X)
	case *ast.ParenExpr:
		return localTypeName(t.X)
	case *ast.IndexExpr:
		return localTypeName(t.X)
	case *ast.IndexListExpr:
		return localTypeName(t.X)
	default:
		return ""
	}
}
