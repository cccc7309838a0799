package callframe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/abi"
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/codert"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/track"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// publishCounterBlueprint deploys a package whose "Counter" blueprint
// exposes two exports: "increment" (reads and rewrites its own state's
// first field, given its own component address as the call argument) and
// "leak_vault" (creates a Vault it never globalises, drops, or returns,
// exercising the drop-failure check). Both take the calling component's
// address as input, the calling convention this reference build's test
// blueprints use to find their own state.
func publishCounterBlueprint(t *testing.T, root *CallFrame, rt *codert.ClosureRuntime, abiRegistry *abi.Registry) addr.Address {
	t.Helper()
	out, _, err := root.InvokeSNode(Static{Module: StaticPackage}, "publish", codec.RawBytes([]byte("counter_code")), nil)
	require.NoError(t, err)
	pkg, err := addr.Decode(out.Bytes)
	require.NoError(t, err)

	rt.Register("counter_code", func(export string, arg codec.Value, api codert.SystemApi) (codec.Value, error) {
		self, err := addr.Decode(arg.Bytes)
		if err != nil {
			return codec.Value{}, fmt.Errorf("counter: decode self address: %w", err)
		}
		cid := ids.ComponentId{Address: self}

		switch export {
		case "increment":
			state, err := api.ReadValueData(codert.ComponentOffset{Component: cid, Offset: "state"})
			if err != nil {
				return codec.Value{}, err
			}
			next := state.Fields[0].Uint + 1
			if err := api.WriteValueData(codert.ComponentOffset{Component: cid, Offset: "state"}, codec.StructOf(codec.Uint64(next))); err != nil {
				return codec.Value{}, err
			}
			return codec.Uint64(next), nil

		case "leak_vault":
			if _, err := api.CreateValue(valuegraph.Vault{Resource: addr.NewResource(addr.Hash{99}), Amount: 1}); err != nil {
				return codec.Value{}, err
			}
			return codec.Unit(), nil

		default:
			return codec.Value{}, fmt.Errorf("counter: unknown export %q", export)
		}
	})

	require.NoError(t, abiRegistry.Register("Counter", []abi.FunctionSpec{
		{Ident: "increment", Export: "increment"},
		{Ident: "leak_vault", Export: "leak_vault"},
	}))

	return pkg
}

func newCounterComponent(t *testing.T, root *CallFrame, pkg addr.Address) ids.ComponentId {
	t.Helper()
	compID, err := root.CreateValue(&valuegraph.Component{
		PackageAddress: pkg,
		Blueprint:      "Counter",
		State:          codec.StructOf(codec.Uint64(0)),
	})
	require.NoError(t, err)
	cid := compID.(ids.ComponentId)
	componentAddr, err := root.GlobalizeValue(compID)
	require.NoError(t, err)
	cid.Address = componentAddr
	return cid
}

func TestScryptoComponentCallMutatesPersistedState(t *testing.T) {
	root, tr, rt, abiRegistry, _ := newTestRoot(t, nil)
	pkg := publishCounterBlueprint(t, root, rt, abiRegistry)
	cid := newCounterComponent(t, root, pkg)

	selfArg := codec.RawBytes(cid.Address.Key())

	out, _, err := root.InvokeSNode(ScryptoComponent{ID: cid}, "increment", selfArg, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), out.Uint)

	out, _, err = root.InvokeSNode(ScryptoComponent{ID: cid}, "increment", selfArg, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), out.Uint, "state mutated by the first call must have been persisted to Track")

	require.NoError(t, tr.TakeLock(cid.Address, false))
	sv, err := tr.ReadValue(cid.Address)
	require.NoError(t, err)
	comp := sv.(track.ComponentSubstate)
	require.Equal(t, uint64(2), comp.State.Fields[0].Uint)
	tr.ReleaseLock(cid.Address)
}

func TestScryptoComponentReentrancyOnConcurrentLock(t *testing.T) {
	root, tr, rt, abiRegistry, _ := newTestRoot(t, nil)
	pkg := publishCounterBlueprint(t, root, rt, abiRegistry)
	cid := newCounterComponent(t, root, pkg)

	require.NoError(t, tr.TakeLock(cid.Address, true))
	_, _, err := root.InvokeSNode(ScryptoComponent{ID: cid}, "increment", codec.RawBytes(cid.Address.Key()), nil)
	require.Error(t, err)
	var reentrancy *track.ReentrancyError
	require.ErrorAs(t, err, &reentrancy)
	tr.ReleaseLock(cid.Address)
}

func TestScryptoCallDropFailureOnLeakedVault(t *testing.T) {
	root, _, rt, abiRegistry, _ := newTestRoot(t, nil)
	pkg := publishCounterBlueprint(t, root, rt, abiRegistry)
	cid := newCounterComponent(t, root, pkg)

	_, _, err := root.InvokeSNode(ScryptoComponent{ID: cid}, "leak_vault", codec.RawBytes(cid.Address.Key()), nil)
	require.Error(t, err)
	var dropFailure *engineerr.DropFailureError
	require.ErrorAs(t, err, &dropFailure)
}

func TestScryptoFunctionCallFallsBackToFnIdentWithoutABI(t *testing.T) {
	root, _, rt, _, _ := newTestRoot(t, nil)
	out, _, err := root.InvokeSNode(Static{Module: StaticPackage}, "publish", codec.RawBytes([]byte("raw_code")), nil)
	require.NoError(t, err)
	pkg, err := addr.Decode(out.Bytes)
	require.NoError(t, err)

	rt.Register("raw_code", func(export string, arg codec.Value, api codert.SystemApi) (codec.Value, error) {
		if export != "ping" {
			return codec.Value{}, fmt.Errorf("unexpected export %q", export)
		}
		return codec.Text("pong"), nil
	})

	out, _, err = root.InvokeSNode(ScryptoBlueprint{Package: pkg, Blueprint: "Raw"}, "ping", codec.Unit(), nil)
	require.NoError(t, err)
	require.Equal(t, "pong", out.Text)
}
