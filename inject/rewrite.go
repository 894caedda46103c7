package inject

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
)

const internalErrorPrefix = "mockinject internal error: "

// internalError formats the message of a fault in the rewriter itself. These are raised with panic,
// never returned, since continuing would emit code that compiles but mocks incorrectly.
func internalError(format string, args ...any) string {
	return internalErrorPrefix + fmt.Sprintf(format, args...)
}

// rewriteFunc splices the interception prologue in front of the original statements of sig's body.
// It reports false, leaving the function untouched, when the function is pinned, has no body, or
// already starts with a prologue.
func rewriteFunc(buf *bytes.Buffer, key string, sig *Signature) bool {
	if sig.Const || sig.Body == nil || hasPrologue(sig.Body) {
		return false
	}
	normalizeParams(sig.Params)
	normalizeTypeParams(sig.TypeParams)
	header := newHeaderBuilder(buf, sig.Params, sig.Results).build(key)
	for _, stmt := range header {
		anchorPositions(stmt, sig.Body.Lbrace)
	}
	sig.Body.List = append(header, sig.Body.List...)
	return true
}

var posType = reflect.TypeOf(token.NoPos)

// anchorPositions moves every position within node to pos. The prologue is parsed in its own file set,
// left as is its positions would point into unrelated source and drag comments into the prologue
// when printed.
func anchorPositions(node ast.Node, pos token.Pos) {
	ast.Inspect(node, func(n ast.Node) bool {
		v := reflect.ValueOf(n)
		if n == nil || v.Kind() != reflect.Pointer || v.IsNil() {
			return false
		}
		v = v.Elem()
		if v.Kind() != reflect.Struct {
			return true
		}
		for i := range v.NumField() {
			if f := v.Field(i); f.Type() == posType && f.CanSet() && token.Pos(f.Int()).IsValid() {
				f.SetInt(int64(pos))
			}
		}
		return true
	})
}

// hasPrologue reports whether body was already rewritten, by looking for the registry call among the
// leading statements.
func hasPrologue(body *ast.BlockStmt) bool {
	for _, stmt := range body.List {
		switch s := stmt.(type) {
		case *ast.DeclStmt:
			continue // result slots
		case *ast.IfStmt:
			return isRegistryCall(s.Cond)
		}
		return false
	}
	return false
}

func isRegistryCall(cond ast.Expr) bool {
	bin, ok := cond.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	call, ok := bin.X.(*ast.CallExpr)
	if !ok {
		return false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == MockableImportName && sel.Sel.Name == "Call"
}
