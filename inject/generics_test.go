package inject

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenericSuffix(t *testing.T) {
	t.Parallel()

	assert.Empty(t, genericSuffix(nil))
	assert.Equal(t, "[T]", genericSuffix([]*ast.Ident{ast.NewIdent("T")}))
	assert.Equal(t, "[A, B]", genericSuffix([]*ast.Ident{ast.NewIdent("A"), ast.NewIdent("B")}))
	assert.Equal(t, "[K, __mock_unignored_type_param_1__]",
		genericSuffix([]*ast.Ident{ast.NewIdent("K"), ast.NewIdent("_")}))
}

func TestFuncKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		key  string // empty when the function can not be keyed
	}{
		{"free", "func f() {}", "f"},
		{"free_generic", "func f[A, B any](a A, b B) {}", "f[A, B]"},
		{"free_generic_grouped", "func f[A, B any, C comparable]() {}", "f[A, B, C]"},
		{"value_receiver", "func (Foo) M() {}", "Foo.M"},
		{"blank_receiver", "func (_ Foo) M() {}", "Foo.M"},
		{"pointer_receiver", "func (*Foo) M() {}", "(*Foo).M"},
		{"generic_receiver", "func (Foo[T]) Id(x T) T { return x }", "Foo[T].Id"},
		{"generic_pointer_receiver", "func (*Pair[K, V]) Swap() {}", "(*Pair[K, V]).Swap"},
		{"blank_type_param", "func (Pair[K, _]) Key() K { var k K; return k }",
			"Pair[K, __mock_unignored_type_param_1__].Key"},
		{"init", "func init() {}", ""},
		{"blank_name", "func _() {}", ""},
		{"param_shadows_func", "func f(f int) {}", ""},
		{"param_shadows_receiver", "func (Foo) M(Foo int) {}", ""},
		{"type_param_shadows_func", "func f[f any]() {}", ""},
		{"named_result_shadows_func", "func f() (f int) { return }", ""},
		{"param_shadows_result_type", "func f(string int) string { return \"\" }", ""},
		{"param_shadows_result_package", "func f(fmt int) fmt.Stringer { return nil }", ""},
		{"param_matches_result_selector", "func f(Stringer int) fmt.Stringer { return nil }", "f"},
		{"param_in_result_func_type", "func f(x int) func(x int) { return nil }", "f"},
		{"param_shadows_nil", "func h(nil int) {}", ""},
		{"param_shadows_nil_method", "func (Foo) M(nil string) {}", ""},
		{"result_shadows_nil", "func h() (nil error) { return }", ""},
		{"type_param_shadows_nil", "func h[nil any]() {}", ""},
		{"type_param_shadows_receiver", "func (Box[Box]) M() {}", ""},
		{"type_param_in_result", "func h[T any]() (t T) { return }", "h[T]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := funcKey(signatureOf(parseFuncDecl(t, tc.src)))
			assert.Equal(t, tc.key != "", ok)
			assert.Equal(t, tc.key, key)
		})
	}
}
