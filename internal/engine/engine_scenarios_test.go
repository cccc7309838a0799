package engine

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/abi"
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/callframe"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/codert"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/receipt"
	"github.com/ledgervm/engine/internal/substatestore"
	"github.com/ledgervm/engine/internal/track"
	"github.com/ledgervm/engine/internal/valuegraph"
)

func testResourceAddr(seed byte) addr.Address {
	var h addr.Hash
	h[0] = seed
	return addr.NewResource(h)
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	u, err := uuid.NewRandom()
	require.NoError(t, err)
	return u
}

// These six scenarios are the end-to-end properties a submitted
// transaction must satisfy regardless of which collaborator it exercises:
// a durable vault round-trips value across two calls, authorisation
// actually blocks the wrong signer, a transient bucket can visit the
// worktop and come back, a locked substate cannot be re-entered, a
// component's key-value store persists a write, and an empty manifest is
// a trivially valid transaction.

func newTestEngine() (*Engine, *substatestore.InMemory, *codert.ClosureRuntime) {
	store := substatestore.NewInMemory()
	rt := codert.NewClosureRuntime()
	e := New(store, rt, abi.NewRegistry(), modules.NewResourceRegistry())
	return e, store, rt
}

// seedVault commits a vault substate directly, simulating ledger state
// left behind by some earlier transaction (e.g. a prior component
// instantiation that vaulted a starting balance).
func seedVault(t *testing.T, store substatestore.Store, resource addr.Address, amount uint64, seed byte) addr.Address {
	t.Helper()
	var hash [32]byte
	hash[0] = seed
	tr := track.New(store, hash)
	vaultAddr := addr.NewVault(addr.NewGlobalComponent(addr.Hash{seed}), mustUUID(t))
	tr.CreateUUIDValue(vaultAddr, track.VaultSubstate{Resource: resource, Amount: amount})
	built, err := receipt.Build(tr.ToReceipt())
	require.NoError(t, err)
	require.NoError(t, receipt.Commit(store, built))
	return vaultAddr
}

func readVaultAmount(t *testing.T, store substatestore.Store, vaultAddr addr.Address) uint64 {
	t.Helper()
	var hash [32]byte
	hash[0] = 0xff
	tr := track.New(store, hash)
	require.NoError(t, tr.TakeLock(vaultAddr, false))
	defer tr.ReleaseLock(vaultAddr)
	sv, err := tr.ReadValue(vaultAddr)
	require.NoError(t, err)
	return sv.(track.VaultSubstate).Amount
}

func txHash(seed byte) [32]byte {
	var h [32]byte
	h[0] = seed
	return h
}

func TestScenarioWithdrawThenDeposit(t *testing.T) {
	e, store, _ := newTestEngine()
	resource := testResourceAddr(1)
	e.Resources.Register(&modules.ResourceManager{Address: resource})
	vaultA := seedVault(t, store, resource, 100, 10)
	vaultB := seedVault(t, store, resource, 0, 11)

	manifest := []modules.Instruction{
		{Target: callframe.TrackedVaultRef{Address: vaultA}, FnIdent: "withdraw", Input: codec.Uint64(40)},
		{Target: callframe.TrackedVaultRef{Address: vaultB}, FnIdent: "deposit", Input: codec.Unit(), Moved: []ids.ValueId{ids.BucketId{ID: 1}}},
	}

	result, err := e.Submit(txHash(1), nil, manifest)
	require.NoError(t, err)
	require.Len(t, result.Outputs, 2)

	require.Equal(t, uint64(60), readVaultAmount(t, store, vaultA))
	require.Equal(t, uint64(40), readVaultAmount(t, store, vaultB))
}

func TestScenarioWrongSignerWithdrawIsRejected(t *testing.T) {
	e, store, _ := newTestEngine()
	ownerKey := []byte("owner")
	attackerKey := []byte("attacker")

	resource := testResourceAddr(2)
	e.Resources.Register(&modules.ResourceManager{
		Address:      resource,
		WithdrawAuth: auth.RequireProof{Resource: auth.SignerResource(ownerKey)},
		VaultAuth:    auth.RequireProof{Resource: auth.SignerResource(ownerKey)},
	})
	vaultA := seedVault(t, store, resource, 500, 20)

	manifest := []modules.Instruction{
		{Target: callframe.TrackedVaultRef{Address: vaultA}, FnIdent: "withdraw", Input: codec.Uint64(10)},
	}

	_, err := e.Submit(txHash(2), [][]byte{attackerKey}, manifest)
	require.Error(t, err)
	var authErr *engineerr.AuthorisationFailureError
	require.ErrorAs(t, err, &authErr)

	require.Equal(t, uint64(500), readVaultAmount(t, store, vaultA), "a rejected transaction must not mutate the ledger")
}

func TestScenarioBucketRoundTripThroughWorktop(t *testing.T) {
	e, store, _ := newTestEngine()
	resource := testResourceAddr(3)
	e.Resources.Register(&modules.ResourceManager{Address: resource})
	vaultA := seedVault(t, store, resource, 500, 30)

	manifest := []modules.Instruction{
		{Target: callframe.TrackedVaultRef{Address: vaultA}, FnIdent: "withdraw", Input: codec.Uint64(75)},
		{Target: callframe.WorktopRef{}, FnIdent: "put", Input: codec.Unit(), Moved: []ids.ValueId{ids.BucketId{ID: 1}}},
		{Target: callframe.WorktopRef{}, FnIdent: "take_all", Input: codec.RawBytes(resource.Key())},
		{Target: callframe.TrackedVaultRef{Address: vaultA}, FnIdent: "deposit", Input: codec.Unit(), Moved: []ids.ValueId{ids.BucketId{ID: 2}}},
	}

	result, err := e.Submit(txHash(3), nil, manifest)
	require.NoError(t, err, "a manifest that ends with an empty worktop must commit cleanly")
	require.Len(t, result.Outputs, 4)

	require.Equal(t, uint64(500), readVaultAmount(t, store, vaultA), "the full round trip must leave the vault unchanged")
}

func TestScenarioReentrancyOnHeldLockIsRejected(t *testing.T) {
	e, store, _ := newTestEngine()
	resource := testResourceAddr(4)
	e.Resources.Register(&modules.ResourceManager{Address: resource})
	vaultA := seedVault(t, store, resource, 10, 40)

	// Exercises the same Track + CallFrame path Submit drives internally,
	// but with the vault's lock held open (as a nested call would leave it)
	// before the Dispatcher gets a chance to resolve against it.
	hash := txHash(41)
	tr := track.New(store, hash)
	cost := callframe.NewCostCounter(1_000_000)
	root := callframe.NewRoot(hash, nil, tr, codert.NewClosureRuntime(), abi.NewRegistry(), e.Resources, cost, callframe.DefaultFeeTable())

	require.NoError(t, tr.TakeLock(vaultA, true))
	defer tr.ReleaseLock(vaultA)

	_, _, err := root.InvokeSNode(callframe.TrackedVaultRef{Address: vaultA}, "amount", codec.Unit(), nil)
	require.Error(t, err)
	var reentrancy *track.ReentrancyError
	require.ErrorAs(t, err, &reentrancy)
}

func TestScenarioKeyValueStoreWriteThenRead(t *testing.T) {
	e, store, rt := newTestEngine()

	rt.Register("store_code", func(export string, arg codec.Value, api codert.SystemApi) (codec.Value, error) {
		switch export {
		case "instantiate":
			pkg, err := addr.Decode(arg.Bytes)
			if err != nil {
				return codec.Value{}, err
			}
			compID, err := api.CreateValue(&valuegraph.Component{PackageAddress: pkg, Blueprint: "Note", State: codec.Unit()})
			if err != nil {
				return codec.Value{}, err
			}
			address, err := api.GlobalizeValue(compID)
			if err != nil {
				return codec.Value{}, err
			}
			return codec.RawBytes(address.Key()), nil

		case "put_get":
			storeID, err := api.CreateValue(modules.NewKeyValueStore())
			if err != nil {
				return codec.Value{}, err
			}
			key := codert.KeyValueEntry{Store: storeID.(ids.KeyValueStoreId), Key: []byte("greeting")}
			if err := api.WriteValueData(key, codec.Text("hello")); err != nil {
				return codec.Value{}, err
			}
			out, err := api.ReadValueData(key)
			if err != nil {
				return codec.Value{}, err
			}
			if err := api.DropValue(storeID); err != nil {
				return codec.Value{}, err
			}
			if out.IsNone() {
				return codec.Value{}, fmt.Errorf("store_code: wrote greeting but read back nothing")
			}
			return *out.Some, nil

		default:
			return codec.Value{}, fmt.Errorf("store_code: unknown export %q", export)
		}
	})

	require.NoError(t, e.ABI.Register("Note", []abi.FunctionSpec{
		{Ident: "instantiate", Export: "instantiate"},
		{Ident: "put_get", Export: "put_get"},
	}))

	out, _, err := publishAndInstantiate(t, e)
	require.NoError(t, err)

	manifest := []modules.Instruction{
		{Target: callframe.ScryptoComponent{ID: ids.ComponentId{Address: out}}, FnIdent: "put_get", Input: codec.Unit()},
	}
	result, err := e.Submit(txHash(50), nil, manifest)
	require.NoError(t, err)
	require.Len(t, result.Outputs, 1)
	require.Equal(t, "hello", result.Outputs[0].Text)
}

// publishAndInstantiate deploys store_code and calls its function-level
// "instantiate" export, returning the freshly globalised component's
// address.
func publishAndInstantiate(t *testing.T, e *Engine) (addr.Address, []codec.Value, error) {
	t.Helper()
	publishResult, err := e.Submit(txHash(49), nil, []modules.Instruction{
		{Target: callframe.Static{Module: callframe.StaticPackage}, FnIdent: "publish", Input: codec.RawBytes([]byte("store_code"))},
	})
	require.NoError(t, err)
	pkg, err := addr.Decode(publishResult.Outputs[0].Bytes)
	require.NoError(t, err)

	instantiateResult, err := e.Submit(txHash(49^1), nil, []modules.Instruction{
		{Target: callframe.ScryptoBlueprint{Package: pkg, Blueprint: "Note"}, FnIdent: "instantiate", Input: codec.RawBytes(pkg.Key())},
	})
	require.NoError(t, err)
	componentAddr, err := addr.Decode(instantiateResult.Outputs[0].Bytes)
	require.NoError(t, err)
	return componentAddr, instantiateResult.Outputs, nil
}

func TestScenarioEmptyManifestTransactionSucceeds(t *testing.T) {
	e, _, _ := newTestEngine()
	result, err := e.Submit(txHash(60), nil, nil)
	require.NoError(t, err)
	require.Empty(t, result.Outputs)
	require.Empty(t, result.Receipt.Entries)
}
