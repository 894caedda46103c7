package inject

import (
	"bytes"
	"go/ast"
)

// walker visits a declaration tree and rewrites every eligible function it reaches.
type walker struct {
	buf       bytes.Buffer
	annotated bool
	file      *ast.File
	rewritten map[*ast.File][]string
}

func newWalker(annotated bool) *walker {
	return &walker{
		annotated: annotated,
		rewritten: make(map[*ast.File][]string),
	}
}

func (w *walker) walk(d *Decl) {
	switch d.Kind {
	case DeclModule:
		w.walkModule(d)
	case DeclFunc:
		if w.annotated && !hasDirective(d.Func.Doc, InjectDirective) {
			return
		}
		w.rewrite(signatureOf(d.Func))
	case DeclImpl:
		w.walkImpl(d.Impl)
	case DeclOther:
		// interfaces, types, values and imports hold nothing to rewrite
	default:
		panic(internalError("unknown declaration kind %v", d.Kind))
	}
}

func (w *walker) walkModule(d *Decl) {
	if d.Children == nil {
		return // opaque, left as authored
	}
	if d.File != nil {
		prev := w.file
		w.file = d.File
		defer func() { w.file = prev }()
	}
	for _, child := range d.Children {
		w.walk(child)
	}
}

func (w *walker) walkImpl(impl *ImplBlock) {
	if impl.Trait != "" {
		return // interface implementations are not supported
	}
	for _, m := range impl.Methods {
		if w.annotated && !impl.Annotated && !hasDirective(m.Doc, InjectDirective) {
			continue
		}
		sig := signatureOf(m)
		if len(sig.Params) > 0 && sig.Params[0].Kind == ParamReceiver {
			continue // methods bound to a receiver value are not supported
		}
		w.rewrite(sig)
	}
}

func (w *walker) rewrite(sig *Signature) {
	key, ok := funcKey(sig)
	if !ok {
		return
	}
	if rewriteFunc(&w.buf, key, sig) {
		w.rewritten[w.file] = append(w.rewritten[w.file], key)
	}
}
