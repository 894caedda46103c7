package inject

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

const (
	// MockableImportName is the file-level alias the generated prologues refer to the registry by.
	MockableImportName = "__mockable__"
	// DefaultRuntimePath is the import path of the call interception registry.
	DefaultRuntimePath = "github.com/PatchLens/go-mock-inject/mockable"

	resultSlotPrefix = "__mock_result_"
)

func resultSlotName(i int) string {
	return resultSlotPrefix + strconv.Itoa(i) + syntheticNameSuffix
}

// headerBuilder synthesizes the interception prologue for one function:
//
//	var __mock_result_0__ T0
//	if __mockable__.Call(key, []interface{}{&p0, &p1}, []interface{}{&__mock_result_0__}) == __mockable__.Return {
//		return __mock_result_0__
//	}
//
// On Continue the registry may have rebound the parameters through their pointers, and the original
// body proceeds with them.
type headerBuilder struct {
	buf     *bytes.Buffer
	params  []Param
	results *ast.FieldList
}

func newHeaderBuilder(buf *bytes.Buffer, params []Param, results *ast.FieldList) *headerBuilder {
	return &headerBuilder{buf: buf, params: params, results: results}
}

// build renders the prologue source, parses it back, and returns its statements.
func (h *headerBuilder) build(key string) []ast.Stmt {
	src := h.source(key)
	expr, err := parser.ParseExprFrom(token.NewFileSet(), "", src, 0)
	if err != nil {
		panic(internalError("generated header unparsable: %v\n%s", err, src))
	}
	lit, ok := expr.(*ast.FuncLit)
	if !ok || lit.Body == nil {
		panic(internalError("generated header not a block: %T", expr))
	}
	return lit.Body.List
}

func (h *headerBuilder) source(key string) string {
	args := h.argsStr()
	resultTypes := h.resultTypeStrs()
	slots := make([]string, len(resultTypes))
	for i := range resultTypes {
		slots[i] = resultSlotName(i)
	}

	var sb strings.Builder
	sb.WriteString("func() {\n")
	for i, typ := range resultTypes {
		fmt.Fprintf(&sb, "\tvar %s %s\n", slots[i], typ)
	}
	fmt.Fprintf(&sb, "\tif %s.Call(%s, %s, %s) == %s.Return {\n\t\treturn %s\n\t}\n}",
		MockableImportName, key, addressList(args), addressList(slots), MockableImportName, strings.Join(slots, ", "))
	return sb.String()
}

// argsStr lists the names of all parameters in declaration order. Normalization must already have
// bound every parameter to a name.
func (h *headerBuilder) argsStr() []string {
	args := make([]string, 0, len(h.params))
	for _, p := range h.params {
		switch p.Kind {
		case ParamNamed, ParamReceiver:
			id := p.Ident()
			if id == nil {
				panic(internalError("invalid function input '%v'", p))
			}
			args = append(args, id.Name)
		case ParamBlank, ParamUnnamed:
			panic(internalError("invalid function input '%v'", p))
		default:
			panic(internalError("invalid function input '%v'", p))
		}
	}
	return args
}

// resultTypeStrs renders one type per result value, expanding grouped results such as (a, b int).
func (h *headerBuilder) resultTypeStrs() []string {
	if h.results == nil {
		return nil
	}
	types := make([]string, 0, h.results.NumFields())
	for _, field := range h.results.List {
		h.buf.Reset()
		if err := format.Node(h.buf, token.NewFileSet(), field.Type); err != nil {
			panic(internalError("result type unprintable: %v", err))
		}
		typ := h.buf.String()
		for range max(1, len(field.Names)) {
			types = append(types, typ)
		}
	}
	return types
}

func addressList(names []string) string {
	if len(names) == 0 {
		return literalNil
	}
	return "[]interface{}{&" + strings.Join(names, ", &") + "}"
}
