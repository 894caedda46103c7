package inject

import (
	"go/ast"
	"strconv"
)

const (
	unignoredArgumentPrefix  = "__mock_unignored_argument_"
	unignoredTypeParamPrefix = "__mock_unignored_type_param_"
	syntheticNameSuffix      = "__"
)

// unignoredArgumentName is the name given to the blank or unnamed parameter at position i.
func unignoredArgumentName(i int) string {
	return unignoredArgumentPrefix + strconv.Itoa(i) + syntheticNameSuffix
}

// unignoredTypeParamName is the name given to the blank type parameter at position i.
func unignoredTypeParamName(i int) string {
	return unignoredTypeParamPrefix + strconv.Itoa(i) + syntheticNameSuffix
}

// normalizeParams binds every blank or unnamed parameter to a synthetic name derived from its position,
// keeping arity, order and declared types. Go requires either all or none of a parameter list to be
// named, so an unnamed list becomes fully named.
func normalizeParams(params []Param) {
	for i := range params {
		p := &params[i]
		switch p.Kind {
		case ParamNamed, ParamReceiver:
			// already addressable
		case ParamBlank:
			old := p.Field.Names[p.Index]
			p.Field.Names[p.Index] = &ast.Ident{NamePos: old.NamePos, Name: unignoredArgumentName(i)}
			p.Kind = ParamNamed
		case ParamUnnamed:
			p.Field.Names = []*ast.Ident{ast.NewIdent(unignoredArgumentName(i))}
			p.Index = 0
			p.Kind = ParamNamed
		default:
			panic(internalError("invalid function input '%v'", *p))
		}
	}
}

// normalizeTypeParams renames blank type parameters in place so the function key can refer to them.
func normalizeTypeParams(typeParams []*ast.Ident) {
	for i, id := range typeParams {
		if id.Name == "_" {
			id.Name = unignoredTypeParamName(i)
		}
	}
}
