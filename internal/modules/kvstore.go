package modules

import "github.com/ledgervm/engine/internal/codec"
import "github.com/ledgervm/engine/internal/valuegraph"

// KVStoreGet reads one entry, reporting whether it is present. A present
// entry whose value names a nested value is not resolved here - callers
// walk kv.Children themselves, mirroring the substate split between a raw
// codec.Value and the nested REValue it may reference (§4.2).
func KVStoreGet(kv *valuegraph.KeyValueStore, key string) (codec.Value, bool) {
	v, ok := kv.Entries[key]
	return v, ok
}

// KVStorePut installs or overwrites one entry.
func KVStorePut(kv *valuegraph.KeyValueStore, key string, value codec.Value) {
	if kv.Entries == nil {
		kv.Entries = make(map[string]codec.Value)
	}
	kv.Entries[key] = value
}

// NewKeyValueStore constructs an empty, owned key-value store.
func NewKeyValueStore() *valuegraph.KeyValueStore {
	return &valuegraph.KeyValueStore{
		Entries:  make(map[string]codec.Value),
		Children: valuegraph.NewInMemoryChildren(),
	}
}
