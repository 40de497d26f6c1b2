package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectProxyGet(t *testing.T) {
	proxy := MakeProxy(map[string]any{"a": map[string]any{"b": "c"}}, nil).(ObjectProxy)
	inner, err := proxy.Get("a")
	require.NoError(t, err)
	v, err := inner.(ObjectProxy).Get("b")
	require.NoError(t, err)
	assert.Equal(t, "c", Unwrap(v))
}

func TestObjectProxyEqual(t *testing.T) {
	proxy := MakeProxy(map[string]any{"a": "b"}, nil)
	assert.True(t, Equal(proxy, map[string]any{"a": "b"}))
	assert.True(t, Equal(map[string]any{"a": "b"}, proxy))
}

func TestObjectProxyLookupError(t *testing.T) {
	proxy := MakeProxy(map[string]any{"a": map[string]any{"b": "c"}}, nil).(ObjectProxy)
	inner, err := proxy.Get("a")
	require.NoError(t, err)
	_, err = inner.(ObjectProxy).Get("c")
	var lerr *LookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, Path{"a"}, lerr.Path)
	assert.Equal(t, "c", lerr.Key)
}

func TestArrayProxyGet(t *testing.T) {
	outer := MakeProxy(map[string]any{"a": []any{"0"}}, nil).(ObjectProxy)
	inner, err := outer.Get("a")
	require.NoError(t, err)
	proxy, ok := inner.(ArrayProxy)
	require.True(t, ok)
	v, err := proxy.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "0", Unwrap(v))
}

func TestArrayProxyEqual(t *testing.T) {
	proxy := MakeProxy([]any{1, 2}, nil)
	assert.True(t, Equal(proxy, []any{1, 2}))
	assert.True(t, Equal([]any{1, 2}, proxy))
}

func TestArrayProxyLookupError(t *testing.T) {
	proxy := MakeProxy([]any{1, []any{2, []any{3}}}, nil).(ArrayProxy)
	second, err := proxy.Get(1)
	require.NoError(t, err)
	third, err := second.(ArrayProxy).Get(1)
	require.NoError(t, err)
	_, err = third.(ArrayProxy).Get(1)
	var lerr *LookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, Path{1, 1}, lerr.Path)
	assert.Equal(t, 1, lerr.Key)
}

func TestNestedLookupError(t *testing.T) {
	proxy := MakeProxy(map[string]any{
		"a": []any{
			map[string]any{"b": []any{"c"}},
			map[string]any{"b": []any{"d"}},
		},
	}, nil).(ObjectProxy)

	a, err := proxy.Get("a")
	require.NoError(t, err)
	item, err := a.(ArrayProxy).Get(1)
	require.NoError(t, err)
	b, err := item.(ObjectProxy).Get("b")
	require.NoError(t, err)
	_, err = b.(ArrayProxy).Get(2)
	var lerr *LookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, Path{"a", 1, "b"}, lerr.Path)
	assert.Equal(t, 2, lerr.Key)

	_, err = proxy.Get("b")
	require.ErrorAs(t, err, &lerr)
	assert.Empty(t, lerr.Path)
	assert.Equal(t, "b", lerr.Key)
}
