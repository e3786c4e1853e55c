package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_InProcess(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	require.NoError(t, m.EnsureSchema(ctx))
	require.NoError(t, m.Preload(ctx))

	_, ok := m.Get(ctx, "Hello")
	require.False(t, ok)

	require.NoError(t, m.Set(ctx, "Hello", "Bonjour"))
	v, ok := m.Get(ctx, "Hello")
	require.True(t, ok)
	require.Equal(t, "Bonjour", v)

	require.NoError(t, m.SetBatch(ctx, map[string]string{"Bye": "Salut", "Hello": "Allô"}))
	require.NoError(t, m.SetBatch(ctx, nil))
	require.Equal(t, 2, m.Len())

	require.Equal(t, map[string]string{"Hello": "Allô", "Bye": "Salut"},
		m.Lookup(ctx, []string{"Hello", "Unknown", "Bye"}))
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := string(rune('a' + i))
			require.NoError(t, m.Set(ctx, src, src+src))
			_, _ = m.Get(ctx, src)
		}(i)
	}
	wg.Wait()
	require.Equal(t, 16, m.Len())
}
