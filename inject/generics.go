package inject

import (
	"go/ast"
	"strings"
)

// genericSuffix renders the instantiation suffix for a type parameter list, "[K, V]", or "" when the
// list is empty. Blank type parameters are rendered with the name normalization will give them.
func genericSuffix(typeParams []*ast.Ident) string {
	if len(typeParams) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, id := range typeParams {
		if i > 0 {
			sb.WriteString(", ")
		}
		if id.Name == "_" {
			sb.WriteString(unignoredTypeParamName(i))
		} else {
			sb.WriteString(id.Name)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// funcKey returns the expression the registry uses to identify sig: the function name for free
// functions, or a method expression on the receiver type, each instantiated with its type parameters.
// The bool is false when no expression can name the function from inside its own body.
func funcKey(sig *Signature) (string, bool) {
	if sig.Name == "_" || sig.Name == "init" {
		return "", false
	} else if sig.recv == nil {
		if shadowsKey(sig, sig.Name) {
			return "", false
		}
		return sig.Name + genericSuffix(sig.TypeParams), true
	} else if !sig.recvValid {
		return "", false
	}

	base := receiverTypeName(sig.recv)
	if base == "" || shadowsKey(sig, base) {
		return "", false
	}
	recv := base + genericSuffix(sig.TypeParams)
	if isPointerReceiver(sig.recv) {
		recv = "(*" + recv + ")"
	}
	return recv + "." + sig.Name, true
}

// shadowsKey reports whether a parameter, result or type parameter of sig hides root or the nil
// literal, or hides a type used by the results, any of which would make the generated prologue refer
// to the wrong thing.
func shadowsKey(sig *Signature, root string) bool {
	names := make(map[string]bool)
	for _, p := range sig.Params {
		if id := p.Ident(); id != nil {
			names[id.Name] = true
		}
	}
	for _, id := range sig.TypeParams {
		if id.Name == root || id.Name == literalNil {
			return true
		}
	}
	if sig.Results != nil {
		for _, field := range sig.Results.List {
			for _, id := range field.Names {
				names[id.Name] = true
			}
		}
	}
	if names[root] || names[literalNil] {
		return true
	} else if sig.Results == nil {
		return false
	}
	for _, field := range sig.Results.List {
		if exprContainsIdent(field.Type, names) {
			return true
		}
	}
	return false
}

func exprContainsIdent(expr ast.Expr, names map[string]bool) bool {
	var found bool
	ast.Inspect(expr, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.SelectorExpr:
			// only the package side of pkg.Type can be shadowed
			found = found || exprContainsIdent(e.X, names)
			return false
		case *ast.Field:
			found = found || exprContainsIdent(e.Type, names)
			return false
		case *ast.Ident:
			found = found || names[e.Name]
		}
		return !found
	})
	return found
}
