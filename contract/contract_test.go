package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		c, err := New("string", Param{Name: "a"}, Param{Name: "b", Type: "int"})
		require.NoError(t, err)
		assert.Equal(t, "string", c.Return())
		assert.Len(t, c.Params(), 2)
	})

	t.Run("duplicate parameter names", func(t *testing.T) {
		t.Parallel()

		_, err := New("", Param{Name: "a"}, Param{Name: "a"})
		require.Error(t, err)
		require.ErrorContains(t, err, `duplicate parameter name "a"`)
	})
}

func Test_Derive(t *testing.T) {
	t.Parallel()

	base := MustNew("string", Param{Name: "hello"})

	t.Run("prepends leading params and inherits return", func(t *testing.T) {
		t.Parallel()

		derived := Derive(base, []Param{{Name: "error", Type: "error"}}, "")
		params := derived.Params()
		require.Len(t, params, 2)
		assert.Equal(t, "error", params[0].Name)
		assert.Equal(t, "hello", params[1].Name)
		assert.Equal(t, "string", derived.Return())
	})

	t.Run("overrides return", func(t *testing.T) {
		t.Parallel()

		derived := Derive(base, nil, "bool")
		assert.Equal(t, "bool", derived.Return())
	})
}

func Test_Contract_Bind(t *testing.T) {
	t.Parallel()

	c := MustNew("string", Param{Name: "a"}, Param{Name: "b"})

	tests := []struct {
		name     string
		contract Contract
		call     Call
		want     []any
		wantErr  string
	}{
		{
			name:     "positional only",
			contract: c,
			call:     Call{Args: []any{1, 2}},
			want:     []any{1, 2},
		},
		{
			name:     "keyword only",
			contract: c,
			call:     Call{KwArgs: map[string]any{"b": 2, "a": 1}},
			want:     []any{1, 2},
		},
		{
			name:     "mixed positional and keyword",
			contract: c,
			call:     Call{Args: []any{1}, KwArgs: map[string]any{"b": 2}},
			want:     []any{1, 2},
		},
		{
			name:     "too many positional",
			contract: c,
			call:     Call{Args: []any{1, 2, 3}},
			wantErr:  "too many positional arguments (got 3, expected 2)",
		},
		{
			name:     "missing required",
			contract: c,
			call:     Call{Args: []any{1}},
			wantErr:  `missing required argument "b"`,
		},
		{
			name:     "unexpected keyword",
			contract: c,
			call:     Call{Args: []any{1, 2}, KwArgs: map[string]any{"x": 3}},
			wantErr:  `unexpected keyword argument "x"`,
		},
		{
			name:     "keyword collides with positional",
			contract: c,
			call:     Call{Args: []any{1, 2}, KwArgs: map[string]any{"a": 3}},
			wantErr:  `got multiple values for argument "a"`,
		},
		{
			name:     "variadic accepts extras",
			contract: AnyArgs(),
			call:     Call{Args: []any{1, "two", 3}},
			want:     []any{1, "two", 3},
		},
		{
			name:     "variadic rejects keywords",
			contract: AnyArgs(),
			call:     Call{KwArgs: map[string]any{"a": 1}},
			wantErr:  `unexpected keyword argument "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.contract.Bind(tt.call)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.ErrorContains(t, err, tt.wantErr)

				var mismatch *ArgumentMismatchError
				require.ErrorAs(t, err, &mismatch)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Contract_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contract Contract
		want     string
	}{
		{
			name:     "empty",
			contract: Contract{},
			want:     "()",
		},
		{
			name:     "params and return",
			contract: MustNew("any", Param{Name: "error", Type: "error"}, Param{Name: "hello"}),
			want:     "(error error, hello) -> any",
		},
		{
			name:     "variadic",
			contract: AnyArgs(),
			want:     "(...)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.contract.String())
		})
	}
}
