package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/codec"
)

func TestKVStorePutAndGet(t *testing.T) {
	kv := NewKeyValueStore()
	KVStorePut(kv, "a", codec.Uint64(42))

	v, ok := KVStoreGet(kv, "a")
	require.True(t, ok)
	require.Equal(t, uint64(42), v.Uint)

	_, ok = KVStoreGet(kv, "missing")
	require.False(t, ok)
}
