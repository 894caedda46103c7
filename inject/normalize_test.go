package inject

import (
	"bytes"
	"go/format"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnignoredNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "__mock_unignored_argument_0__", unignoredArgumentName(0))
	assert.Equal(t, "__mock_unignored_argument_12__", unignoredArgumentName(12))
	assert.Equal(t, "__mock_unignored_type_param_1__", unignoredTypeParamName(1))
}

func TestNormalizeParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		names []string
		sig   string
	}{
		{
			name:  "named_untouched",
			src:   "func f(a int, b string) {}",
			names: []string{"a", "b"},
			sig:   "func f(a int, b string) {}",
		},
		{
			name:  "blank",
			src:   "func add(a int, _ int) int { return a + a }",
			names: []string{"a", "__mock_unignored_argument_1__"},
			sig:   "func add(a int, __mock_unignored_argument_1__ int) int { return a + a }",
		},
		{
			name:  "grouped_blank",
			src:   "func f(_, b, _ string) {}",
			names: []string{"__mock_unignored_argument_0__", "b", "__mock_unignored_argument_2__"},
			sig:   "func f(__mock_unignored_argument_0__, b, __mock_unignored_argument_2__ string) {}",
		},
		{
			name:  "unnamed",
			src:   "func f(int, ...string) {}",
			names: []string{"__mock_unignored_argument_0__", "__mock_unignored_argument_1__"},
			sig:   "func f(__mock_unignored_argument_0__ int, __mock_unignored_argument_1__ ...string) {}",
		},
		{
			name:  "bound_receiver_keeps_positions",
			src:   "func (r *R) f(_ int) {}",
			names: []string{"r", "__mock_unignored_argument_1__"},
			sig:   "func (r *R) f(__mock_unignored_argument_1__ int) {}",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fd := parseFuncDecl(t, tc.src)
			sig := signatureOf(fd)
			normalizeParams(sig.Params)

			names := make([]string, len(sig.Params))
			for i, p := range sig.Params {
				require.NotNil(t, p.Ident())
				names[i] = p.Ident().Name
				assert.NotEqual(t, ParamBlank, p.Kind)
				assert.NotEqual(t, ParamUnnamed, p.Kind)
			}
			assert.Equal(t, tc.names, names)

			var buf bytes.Buffer
			require.NoError(t, format.Node(&buf, token.NewFileSet(), fd))
			assert.Equal(t, tc.sig, buf.String())
		})
	}
}

func TestNormalizeParamsInvalidKind(t *testing.T) {
	t.Parallel()

	sig := signatureOf(parseFuncDecl(t, "func f(a int) {}"))
	sig.Params[0].Kind = ParamKind(42)

	assertInternalPanic(t, "invalid function input", func() {
		normalizeParams(sig.Params)
	})
}

func TestNormalizeTypeParams(t *testing.T) {
	t.Parallel()

	sig := signatureOf(parseFuncDecl(t, "func (Pair[_, V]) M() {}"))
	normalizeTypeParams(sig.TypeParams)

	require.Len(t, sig.TypeParams, 2)
	assert.Equal(t, "__mock_unignored_type_param_0__", sig.TypeParams[0].Name)
	assert.Equal(t, "V", sig.TypeParams[1].Name)
}

func assertInternalPanic(t *testing.T, contains string, fn func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		msg, ok := r.(string)
		require.True(t, ok, "panic value %T", r)
		assert.True(t, strings.HasPrefix(msg, internalErrorPrefix), msg)
		assert.Contains(t, msg, contains)
	}()
	fn()
}
