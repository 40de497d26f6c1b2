package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"123",
		`"str"`,
		"",
		"a-b",
		"a[01]",
		"a[00]",
		"a.b.",
		".a",
		".",
		"a.[1]",
		"a.1",
		"a . b",
		"a. b",
		"a .b",
		"a [0]",
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			var perr *InvalidPointerError
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseAndEvaluate(t *testing.T) {
	ctx := map[string]any{
		"a": 1,
		"b": map[string]any{"x": 2, "z": "z"},
		"c": []any{1, 2},
	}
	cases := []struct {
		input    string
		expected any
	}{
		{"a", 1},
		{"b", map[string]any{"x": 2, "z": "z"}},
		{"b.x", 2},
		{`b["x"]`, 2},
		{"c[1]", 2},
		{" a ", 1},
		{" b.x ", 2},
		{"c[ 0 ]", 1},
		{`b[ "x" ]`, 2},
		{"c[a]", 2},
		{"b[b.z]", "z"},
	}
	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			ptr, err := Parse(c.input)
			require.NoError(t, err)
			v, err := ptr.Evaluate(ctx)
			require.NoError(t, err)
			assert.True(t, Equal(v, c.expected), "got %v", v)
		})
	}
}

func TestEvaluateMissing(t *testing.T) {
	ctx := map[string]any{"a": map[string]any{"b": 1}}
	_, err := MustParse("a.c").Evaluate(ctx)
	var lerr *LookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "c", lerr.Key)
	assert.Equal(t, Path{"a"}, lerr.Path)
}

func TestSet(t *testing.T) {
	cases := []struct {
		name     string
		ctx      map[string]any
		ptr      string
		value    any
		expected map[string]any
	}{
		{
			"new key",
			map[string]any{},
			"test", "x",
			map[string]any{"test": "x"},
		},
		{
			"replace key",
			map[string]any{"test": "x"},
			"test", "y",
			map[string]any{"test": "y"},
		},
		{
			"list index",
			map[string]any{"a": []any{0, 1}},
			"a[1]", 2,
			map[string]any{"a": []any{0, 2}},
		},
		{
			"replace list",
			map[string]any{"a": []any{0, 1}},
			"a", []any{1, 2},
			map[string]any{"a": []any{1, 2}},
		},
		{
			"nested key",
			map[string]any{"a": map[string]any{"b": 1}},
			"a.b", 2,
			map[string]any{"a": map[string]any{"b": 2}},
		},
		{
			"new nested key",
			map[string]any{"a": map[string]any{"b": 1}},
			"a.c", 2,
			map[string]any{"a": map[string]any{"b": 1, "c": 2}},
		},
		{
			"replace mapping",
			map[string]any{"a": map[string]any{"b": 1}},
			"a", map[string]any{},
			map[string]any{"a": map[string]any{}},
		},
		{
			"indirect key",
			map[string]any{"a": map[string]any{"b": 1}, "p": "b"},
			"a[p]", 2,
			map[string]any{"a": map[string]any{"b": 2}, "p": "b"},
		},
		{
			"append past end",
			map[string]any{"a": []any{0}},
			"a[5]", 1,
			map[string]any{"a": []any{0, 1}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			updated, err := MustParse(c.ptr).Set(c.ctx, c.value)
			require.NoError(t, err)
			assert.Equal(t, c.expected, updated)
		})
	}
}

func TestSetMissingParent(t *testing.T) {
	cases := []struct {
		name string
		ctx  map[string]any
		ptr  string
		key  any
		path Path
	}{
		{
			"missing mapping",
			map[string]any{},
			"a.b",
			"a", nil,
		},
		{
			"missing nested mapping",
			map[string]any{"a": map[string]any{}},
			"a.b.c",
			"b", Path{"a"},
		},
		{
			"missing sequence index",
			map[string]any{"a": []any{}},
			"a[0].b",
			0, Path{"a"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := MustParse(c.ptr).Set(c.ctx, 1)
			var lookupErr *LookupError
			require.ErrorAs(t, err, &lookupErr)
			assert.Equal(t, c.key, lookupErr.Key)
			assert.Equal(t, c.path, lookupErr.Path)
		})
	}
}

func TestSetSharesSiblings(t *testing.T) {
	shared := map[string]any{"x": 1}
	ctx := map[string]any{
		"a": map[string]any{"b": 1},
		"s": shared,
	}
	updated, err := MustParse("a.b").Set(ctx, 2)
	require.NoError(t, err)

	// siblings of the updated path are shared, not copied
	assert.Equal(t, map[string]any{"b": 1}, ctx["a"])
	updated["s"].(map[string]any)["x"] = 99
	assert.Equal(t, 99, shared["x"])
}

func TestString(t *testing.T) {
	cases := []string{
		"a",
		"a.b",
		`a["b-c"]`,
		`a["123"]`,
		`a["0"]`,
		"a[0][1]",
		`a.b[0].c["d-e"].f`,
		`a["\"quot\""]`,
		`a["esc\\"]`,
		"a[b.c[d]][e]",
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			parsed, err := Parse(input)
			require.NoError(t, err)
			assert.Equal(t, input, parsed.String())
		})
	}
}

func TestPath(t *testing.T) {
	cases := []struct {
		input    string
		expected Path
	}{
		{"a", Path{"a"}},
		{"a.b", Path{"a", "b"}},
		{"a[1].b[2].c", Path{"a", 1, "b", 2, "c"}},
		{"a[b][0]", Path{"a", MustParse("b"), 0}},
		{"a[b.c[d]][e]", Path{"a", MustParse("b.c[d]"), MustParse("e")}},
	}
	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			assert.Equal(t, c.expected, MustParse(c.input).Path())
		})
	}
}

func TestIndirect(t *testing.T) {
	assert.False(t, MustParse("a.b[0]").Indirect())
	assert.True(t, MustParse("a[p]").Indirect())
}

func TestResolve(t *testing.T) {
	ctx := map[string]any{"p": "b", "i": 1}
	resolved, err := MustParse("a[p].c[i]").Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a.b.c[1]", resolved.String())
}
