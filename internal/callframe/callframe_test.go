package callframe

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/abi"
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codert"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/substatestore"
	"github.com/ledgervm/engine/internal/track"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// newTestRoot builds a root frame against a fresh in-memory store, with
// the given signer keys and the default fee table.
func newTestRoot(t *testing.T, signerKeys [][]byte) (*CallFrame, *track.Track, *codert.ClosureRuntime, *abi.Registry, *modules.ResourceRegistry) {
	t.Helper()
	store := substatestore.NewInMemory()
	var txHash [32]byte
	txHash[0] = 1
	tr := track.New(store, txHash)
	rt := codert.NewClosureRuntime()
	abiRegistry := abi.NewRegistry()
	resources := modules.NewResourceRegistry()
	cost := NewCostCounter(1_000_000)
	fees := DefaultFeeTable()
	root := NewRoot(txHash, signerKeys, tr, rt, abiRegistry, resources, cost, fees)
	return root, tr, rt, abiRegistry, resources
}

func testResourceAddr(seed byte) addr.Address {
	var h addr.Hash
	h[0] = seed
	return addr.NewResource(h)
}

func newBucket(resource addr.Address, amount uint64) valuegraph.Bucket {
	return valuegraph.Bucket{Resource: resource, Amount: amount}
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	u, err := uuid.NewRandom()
	require.NoError(t, err)
	return u
}
