package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressionDefined(t *testing.T) {
	v, err := MustExpression("a + b").EvaluateStrict(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, float64(3), v)
}

func TestExpressionUndefinedName(t *testing.T) {
	_, err := MustExpression("a + b").EvaluateStrict(map[string]any{"a": 1})
	var uerr *UndefinedError
	require.ErrorAs(t, err, &uerr)
	assert.Empty(t, uerr.Path)
	assert.Equal(t, "b", uerr.Key)
}

func TestExpressionUndefinedMember(t *testing.T) {
	_, err := MustExpression("a + b.c").EvaluateStrict(map[string]any{
		"a": 1,
		"b": map[string]any{"d": 2},
	})
	var uerr *UndefinedError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, Path{"b"}, uerr.Path)
	assert.Equal(t, "c", uerr.Key)
}

func TestExpressionUndefinedIndex(t *testing.T) {
	_, err := MustExpression("a[1]").EvaluateStrict(map[string]any{"a": []any{0}})
	var uerr *UndefinedError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, Path{"a"}, uerr.Path)
	assert.Equal(t, 1, uerr.Key)
}

func TestExpressionMissingIsUndefined(t *testing.T) {
	v, err := MustExpression("a").Evaluate(map[string]any{})
	require.NoError(t, err)
	assert.True(t, IsUndefined(v))
}

func TestDefault(t *testing.T) {
	ctx := map[string]any{"b": true, "c": map[string]any{"d": 3}, "e": []any{4}}
	cases := []struct {
		expr     string
		expected any
	}{
		{"default(a, 1)", 1},
		{"default(b, 1)", true},
		{"default(c.e, 2)", 2},
		{"default(e[1], 0)", 0},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			v, err := MustExpression(c.expr).EvaluateStrict(ctx)
			require.NoError(t, err)
			assert.True(t, Equal(v, c.expected), "got %v", v)
		})
	}
}

func TestOperators(t *testing.T) {
	ctx := map[string]any{
		"n":    2,
		"s":    "ab",
		"list": []any{1, 2, 3},
		"m":    map[string]any{"k": 1},
		"t":    true,
		"f":    false,
	}
	cases := []struct {
		expr     string
		expected any
	}{
		{"1 + 2 * 3", float64(7)},
		{"(1 + 2) * 3", float64(9)},
		{"7 % 3", float64(1)},
		{"-n", float64(-2)},
		{"n == 2", true},
		{"n != 2", false},
		{"n == 2.0", true},
		{"n < 3 and n >= 2", true},
		{`s + "c"`, "abc"},
		{`"b" in s`, true},
		{"2 in list", true},
		{"4 in list", false},
		{`"k" in m`, true},
		{"not t", false},
		{"t and f", false},
		{"f or n", 2},
		{"t or missing", true},
		{"f and missing", false},
		{"len(list)", float64(3)},
		{`len("abc")`, float64(3)},
		{"range(3)", []any{float64(0), float64(1), float64(2)}},
		{"range(0)", []any{}},
		{"len(range(n))", float64(2)},
		{"null == none", true},
		{"[1, 2] == [1, 2]", true},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			expr, err := NewExpression(c.expr)
			require.NoError(t, err)
			v, err := expr.EvaluateStrict(ctx)
			require.NoError(t, err)
			assert.True(t, Equal(v, c.expected), "got %v, want %v", v, c.expected)
		})
	}
}

func TestShortCircuitSkipsUndefined(t *testing.T) {
	// "or" must not evaluate its right operand once the left is truthy
	v, err := MustExpression("a or b").EvaluateStrict(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.True(t, Equal(v, 1))
}

func TestDivisionByZero(t *testing.T) {
	_, err := MustExpression("1 / 0").EvaluateStrict(map[string]any{})
	require.Error(t, err)
}

func TestRangeRequiresWholeNumber(t *testing.T) {
	for _, expr := range []string{"range(-1)", "range(1.5)", `range("a")`} {
		_, err := MustExpression(expr).EvaluateStrict(map[string]any{})
		require.Error(t, err, expr)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"1 +",
		"a b",
		"(1",
		"a.",
		"a[",
		"1 ===",
		`"unterminated`,
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			_, err := NewExpression(input)
			var eerr *ExpressionError
			require.ErrorAs(t, err, &eerr)
		})
	}
}

func TestUndefinedPath(t *testing.T) {
	_, err := MustExpression("b.c").EvaluateStrict(map[string]any{
		"b": map[string]any{},
	})
	path, ok := UndefinedPath(err)
	require.True(t, ok)
	assert.Equal(t, Path{"b", "c"}, path)

	ptr := MustParse("b.x.y")
	_, err = ptr.Evaluate(map[string]any{"b": map[string]any{}})
	path, ok = UndefinedPath(err)
	require.True(t, ok)
	assert.Equal(t, Path{"b", "x"}, path)
}
