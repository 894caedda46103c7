package inject

import (
	"fmt"
	"go/ast"
	"strings"
)

// ParamKind classifies a flattened function parameter.
type ParamKind uint8

const (
	// ParamNamed is a parameter bound to an ordinary identifier.
	ParamNamed ParamKind = iota
	// ParamReceiver is a receiver bound to an identifier. Its presence excludes the function from rewriting.
	ParamReceiver
	// ParamBlank is a parameter declared with the blank identifier.
	ParamBlank
	// ParamUnnamed is a parameter declared by type only.
	ParamUnnamed
)

func (k ParamKind) String() string {
	switch k {
	case ParamNamed:
		return "named"
	case ParamReceiver:
		return "receiver"
	case ParamBlank:
		return "blank"
	case ParamUnnamed:
		return "unnamed"
	default:
		return fmt.Sprintf("ParamKind(%d)", k)
	}
}

// Param is a single parameter of a function, flattened out of its field list.
// Field and Index locate the declaring identifier so it can be renamed in place.
type Param struct {
	Kind  ParamKind
	Field *ast.Field
	Index int // position within Field.Names, -1 when the field has no names
	Type  ast.Expr
}

// Ident returns the identifier the parameter is bound to, or nil for unnamed parameters.
func (p Param) Ident() *ast.Ident {
	if p.Field == nil || p.Index < 0 || p.Index >= len(p.Field.Names) {
		return nil
	}
	return p.Field.Names[p.Index]
}

func (p Param) String() string {
	if id := p.Ident(); id != nil {
		return p.Kind.String() + " " + id.Name
	}
	return p.Kind.String()
}

// Signature is the view of a function declaration the rewriter operates on.
type Signature struct {
	Name       string
	Params     []Param
	TypeParams []*ast.Ident // function type parameters, or receiver type parameters for methods
	Results    *ast.FieldList
	Const      bool
	Body       *ast.BlockStmt

	recv      ast.Expr // receiver type expression, nil for free functions
	recvValid bool
}

// pinnedDirectives are compiler directives under which an injected registry call is unsafe.
var pinnedDirectives = []string{
	"//go:nosplit",
	"//go:nowritebarrier",
	"//go:nowritebarrierrec",
	"//go:yeswritebarrierrec",
	"//go:systemstack",
	"//go:norace",
	"//go:uintptrkeepalive",
	"//go:uintptrescapes",
}

func signatureOf(fd *ast.FuncDecl) *Signature {
	sig := &Signature{
		Name:    fd.Name.Name,
		Results: fd.Type.Results,
		Body:    fd.Body,
		Const:   isPinned(fd.Doc),
	}
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		field := fd.Recv.List[0]
		if len(field.Names) == 1 && field.Names[0].Name != "_" {
			sig.Params = append(sig.Params, Param{Kind: ParamReceiver, Field: field, Index: 0, Type: field.Type})
		}
		sig.recv = field.Type
		sig.TypeParams, sig.recvValid = receiverTypeParams(field.Type)
	} else {
		sig.TypeParams = fieldListIdents(fd.Type.TypeParams)
	}
	sig.Params = append(sig.Params, paramsOf(fd.Type.Params)...)
	return sig
}

func paramsOf(fields *ast.FieldList) []Param {
	if fields == nil {
		return nil
	}
	params := make([]Param, 0, fields.NumFields())
	for _, field := range fields.List {
		if len(field.Names) == 0 {
			params = append(params, Param{Kind: ParamUnnamed, Field: field, Index: -1, Type: field.Type})
			continue
		}
		for i, name := range field.Names {
			kind := ParamNamed
			if name.Name == "_" {
				kind = ParamBlank
			}
			params = append(params, Param{Kind: kind, Field: field, Index: i, Type: field.Type})
		}
	}
	return params
}

func fieldListIdents(fields *ast.FieldList) []*ast.Ident {
	if fields == nil {
		return nil
	}
	var idents []*ast.Ident
	for _, field := range fields.List {
		idents = append(idents, field.Names...)
	}
	return idents
}

// receiverTypeParams returns the type parameter identifiers of a receiver type such as *List[K, V].
// The bool is false when an index is not a plain identifier, which Go does not permit on receivers.
func receiverTypeParams(recv ast.Expr) ([]*ast.Ident, bool) {
	switch t := recv.(type) {
	case *ast.StarExpr:
		return receiverTypeParams(t.X)
	case *ast.ParenExpr:
		return receiverTypeParams(t.X)
	case *ast.Ident:
		return nil, true
	case *ast.IndexExpr:
		id, ok := t.Index.(*ast.Ident)
		if !ok {
			return nil, false
		}
		return []*ast.Ident{id}, true
	case *ast.IndexListExpr:
		idents := make([]*ast.Ident, 0, len(t.Indices))
		for _, index := range t.Indices {
			id, ok := index.(*ast.Ident)
			if !ok {
				return nil, false
			}
			idents = append(idents, id)
		}
		return idents, true
	default:
		return nil, false
	}
}

// receiverTypeName returns the base type name of a receiver type expression, or "" if it has none.
func receiverTypeName(recv ast.Expr) string {
	switch t := recv.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.ParenExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

func isPointerReceiver(recv ast.Expr) bool {
	switch t := recv.(type) {
	case *ast.StarExpr:
		return true
	case *ast.ParenExpr:
		return isPointerReceiver(t.X)
	default:
		return false
	}
}

func isPinned(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		for _, directive := range pinnedDirectives {
			if c.Text == directive || strings.HasPrefix(c.Text, directive+" ") {
				return true
			}
		}
	}
	return false
}

// hasDirective reports whether the comment group carries the given //tool:name directive.
// Arguments following the directive are ignored.
func hasDirective(doc *ast.CommentGroup, directive string) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if c.Text == directive || strings.HasPrefix(c.Text, directive+" ") {
			return true
		}
	}
	return false
}
