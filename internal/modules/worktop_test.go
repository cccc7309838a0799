package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/valuegraph"
)

func TestWorktopPutTakeRoundTrip(t *testing.T) {
	resource := testResource()
	w := NewWorktop()
	require.True(t, w.Empty())

	require.NoError(t, w.Put(valuegraph.Bucket{Resource: resource, Amount: 10}))
	require.False(t, w.Empty())

	taken, err := w.Take(resource, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(4), taken.Amount)
	require.False(t, w.Empty())

	taken2, err := w.Take(resource, 6)
	require.NoError(t, err)
	require.Equal(t, uint64(6), taken2.Amount)
	require.True(t, w.Empty())
}

func TestWorktopTakeAll(t *testing.T) {
	resource := testResource()
	w := NewWorktop()
	require.NoError(t, w.Put(valuegraph.Bucket{Resource: resource, Amount: 9}))

	held, ok := w.TakeAll(resource)
	require.True(t, ok)
	require.Equal(t, uint64(9), held.Amount)
	require.True(t, w.Empty())
}
