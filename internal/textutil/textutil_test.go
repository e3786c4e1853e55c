package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBlank(t *testing.T) {
	require.True(t, IsBlank(""))
	require.True(t, IsBlank("  \t\n　"))
	require.False(t, IsBlank(" a "))
}

func TestCountNewlines(t *testing.T) {
	require.Equal(t, 0, CountNewlines("one"))
	require.Equal(t, 2, CountNewlines("a\nb\r\nc"))
}

func TestHash(t *testing.T) {
	require.Equal(t, Hash("x"), Hash("x"))
	require.NotEqual(t, Hash("x"), Hash("y"))
	require.Len(t, Hash(""), 64)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, "a⏎b", Truncate("a\nb", 10))
	require.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	require.Equal(t, "中文...", Truncate("中文中文中文", 7))
}
