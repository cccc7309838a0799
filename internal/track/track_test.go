package track

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/substatestore"
	"github.com/ledgervm/engine/internal/valuegraph"
)

func testHash(b byte) [32]byte {
	var h [32]byte
	for i := range h {
		h[i] = b
	}
	return h
}

func seedResource(t *testing.T, store *substatestore.InMemory, resource addr.Address) {
	t.Helper()
	blob, err := encodeSubstate(ResourceSubstate{Metadata: codec.Text("seed")})
	require.NoError(t, err)
	require.NoError(t, store.PutSubstate(resource.Key(), blob, store.AllocatePhysID()))
}

func TestTakeLockFetchesFromStoreAndReleaseReturnsUnchanged(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	resource := addr.NewResource(h)
	seedResource(t, store, resource)

	tr := New(store, testHash(1))
	require.NoError(t, tr.TakeLock(resource, false))

	sv, err := tr.ReadValue(resource)
	require.NoError(t, err)
	require.Equal(t, ResourceSubstate{Metadata: codec.Text("seed")}, sv)

	tr.ReleaseLock(resource)

	// A read-only lock that never wrote should not appear in the receipt's
	// Up set; the Down entry (from the original fetch) should.
	r := tr.ToReceipt()
	require.Contains(t, r.Downed, string(resource.Key()))
	require.NotContains(t, r.Up, string(resource.Key()))
}

func TestTakeLockMutableThenReleaseStagesUp(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	resource := addr.NewResource(h)
	seedResource(t, store, resource)

	tr := New(store, testHash(2))
	require.NoError(t, tr.TakeLock(resource, true))

	require.NoError(t, tr.WriteValue(resource, ResourceSubstate{Metadata: codec.Text("updated")}))
	tr.ReleaseLock(resource)

	r := tr.ToReceipt()
	require.Equal(t, ResourceSubstate{Metadata: codec.Text("updated")}, r.Up[string(resource.Key())])
	require.Contains(t, r.Downed, string(resource.Key()))
}

func TestTakeLockReentrancy(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	resource := addr.NewResource(h)
	seedResource(t, store, resource)

	tr := New(store, testHash(3))
	require.NoError(t, tr.TakeLock(resource, true))

	err := tr.TakeLock(resource, false)
	require.Error(t, err)
	var reentrancy *ReentrancyError
	require.ErrorAs(t, err, &reentrancy)
}

func TestTakeLockSharedReadsCoexist(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	resource := addr.NewResource(h)
	seedResource(t, store, resource)

	tr := New(store, testHash(4))
	require.NoError(t, tr.TakeLock(resource, false))
	require.NoError(t, tr.TakeLock(resource, false))

	tr.ReleaseLock(resource)
	// still one shared borrow outstanding
	_, err := tr.ReadValue(resource)
	require.NoError(t, err)
	tr.ReleaseLock(resource)
}

func TestTakeLockNotFound(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	h[0] = 0xFF
	resource := addr.NewResource(h)

	tr := New(store, testHash(5))
	err := tr.TakeLock(resource, false)
	require.Error(t, err)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestTakeValueRequiresLoadedMut(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	resource := addr.NewResource(h)
	seedResource(t, store, resource)

	tr := New(store, testHash(6))
	require.NoError(t, tr.TakeLock(resource, false))

	_, err := tr.TakeValue(resource)
	require.Error(t, err)
	var wrongMode *WrongModeError
	require.ErrorAs(t, err, &wrongMode)
}

func TestSetAndReadKeyValue(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	parent := addr.NewGlobalComponent(h)

	tr := New(store, testHash(7))

	entry, err := tr.ReadKeyValue(parent, []byte("k1"))
	require.NoError(t, err)
	require.False(t, entry.Present)

	require.NoError(t, tr.SetKeyValue(parent, []byte("k1"), KeyValueStoreEntrySubstate{
		Value:   codec.Text("v1"),
		Present: true,
	}))

	entry, err = tr.ReadKeyValue(parent, []byte("k1"))
	require.NoError(t, err)
	require.True(t, entry.Present)
	require.Equal(t, codec.Text("v1"), entry.Value)

	r := tr.ToReceipt()
	require.True(t, r.VirtualDowned[string(substateKey(parent, []byte("k1")))])
}

func TestInsertObjectsVault(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	parent := addr.NewGlobalComponent(h)

	tr := New(store, testHash(8))

	var resourceHash addr.Hash
	resourceHash[0] = 1
	resourceAddr := addr.NewResource(resourceHash)

	children := map[string]valuegraph.REValue{
		"vault1": valuegraph.Vault{Resource: resourceAddr, Amount: 42},
	}
	require.NoError(t, tr.InsertObjects(children, parent))

	r := tr.ToReceipt()
	require.Len(t, r.NewAddresses, 1)
	require.NotEmpty(t, r.Up)
}

func TestReleaseLockOnTakenPanics(t *testing.T) {
	store := substatestore.NewInMemory()
	var h addr.Hash
	resource := addr.NewResource(h)
	seedResource(t, store, resource)

	tr := New(store, testHash(9))
	require.NoError(t, tr.TakeLock(resource, true))
	_, err := tr.TakeValue(resource)
	require.NoError(t, err)

	require.Panics(t, func() { tr.ReleaseLock(resource) })
}
