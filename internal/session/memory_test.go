package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"shop-assistant/internal/domain"
)

func TestMemoryStore_GetDefaultsOnFirstAccess(t *testing.T) {
	s := NewMemoryStore()
	state, err := s.Get(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, domain.SessionState{}, state)
}

func TestMemoryStore_PutThenGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	in := domain.SessionState{LowerFilterActive: true}.WithTerm("battery").WithCeiling(500)
	require.NoError(t, s.Put(ctx, "U1", in))

	out, err := s.Get(ctx, "U1")
	require.NoError(t, err)
	term, ok := out.Term()
	require.True(t, ok)
	require.Equal(t, "battery", term)
	ceiling, ok := out.Ceiling()
	require.True(t, ok)
	require.Equal(t, 500, ceiling)
	require.True(t, out.LowerFilterActive)
}

func TestMemoryStore_IsolatesUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "U1", domain.SessionState{}.WithTerm("drone")))

	other, err := s.Get(ctx, "U2")
	require.NoError(t, err)
	_, ok := other.Term()
	require.False(t, ok)
}

func TestMemoryStore_ReturnedStateIsDetached(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "U1", domain.SessionState{}.WithTerm("drone")))

	got, err := s.Get(ctx, "U1")
	require.NoError(t, err)
	*got.SearchTerm = "mutated"

	again, err := s.Get(ctx, "U1")
	require.NoError(t, err)
	term, _ := again.Term()
	require.Equal(t, "drone", term)
}

func TestMemoryStore_RejectsEmptyUserID(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), " ")
	require.Error(t, err)
	require.Error(t, s.Put(context.Background(), "", domain.SessionState{}))
}

func TestMemoryStore_ConcurrentUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := fmt.Sprintf("U%d", i)
			require.NoError(t, s.Put(ctx, uid, domain.SessionState{}.WithCeiling(i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		state, err := s.Get(ctx, fmt.Sprintf("U%d", i))
		require.NoError(t, err)
		ceiling, ok := state.Ceiling()
		require.True(t, ok)
		require.Equal(t, i, ceiling)
	}
}
