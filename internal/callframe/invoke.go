package callframe

import (
	"errors"
	"fmt"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/track"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// movedEntry is one value invoke_snode has already taken out of the
// calling frame's ownership, available to resolve/dispatch by the id it
// was moved under.
type movedEntry struct {
	id   ids.ValueId
	cell *valuegraph.Cell
}

// takeMoved removes every id in moved from this frame's ownership,
// restricting any moved proof and rejecting a moved, still-locked bucket
// (invariant 4). On any failure every value taken so far is restored
// before returning, so a rejected call leaves the caller's frame
// unchanged.
func (f *CallFrame) takeMoved(moved []ids.ValueId) (map[string]movedEntry, error) {
	out := make(map[string]movedEntry, len(moved))
	for _, id := range moved {
		cell, ok := f.takeOwned(id)
		if !ok {
			f.restoreMoved(out)
			return nil, &engineerr.ValueNotFoundError{ID: id}
		}
		switch v := cell.Value.(type) {
		case valuegraph.Bucket:
			if v.Locked {
				f.putBack(id, cell)
				f.restoreMoved(out)
				return nil, &engineerr.CantMoveLockedBucketError{ID: id}
			}
		case valuegraph.Proof:
			if v.Restricted {
				f.putBack(id, cell)
				f.restoreMoved(out)
				return nil, &engineerr.CantMoveRestrictedProofError{ID: id}
			}
			cell.Value = modules.ProofRestrict(v)
		}
		out[id.String()] = movedEntry{id: id, cell: cell}
	}
	return out, nil
}

func (f *CallFrame) takeOwned(id ids.ValueId) (*valuegraph.Cell, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := id.String()
	cell, ok := f.owned[key]
	if ok {
		delete(f.owned, key)
		delete(f.ownedIDs, key)
	}
	return cell, ok
}

// restoreMoved hands every entry back to the frame it was taken from,
// called whenever invoke_snode fails after having taken moved values.
func (f *CallFrame) restoreMoved(entries map[string]movedEntry) {
	for _, e := range entries {
		// takeMoved only accepts unrestricted proofs, so undo its restriction.
		if p, ok := e.cell.Value.(valuegraph.Proof); ok {
			p.Restricted = false
			e.cell.Value = p
		}
		f.putBack(e.id, e.cell)
	}
}

// soleMoved returns the one moved value this call expects, for the
// handful of operations (vault.deposit, worktop.put, auth_zone.push) that
// consume exactly one value alongside their Target. A manifest that moves
// more or fewer values than an operation expects is a caller bug, not a
// runtime condition to recover from cleverly.
func soleMoved(moved map[string]movedEntry) (movedEntry, bool) {
	if len(moved) != 1 {
		return movedEntry{}, false
	}
	for _, e := range moved {
		return e, true
	}
	return movedEntry{}, false
}

func (f *CallFrame) releaseLocks(addrs []addr.Address) {
	for _, a := range addrs {
		f.Track.ReleaseLock(a)
	}
}

// InvokeSNode is the Dispatcher's invoke_snode entry point (§4.4): resolve
// the target, authorise, dispatch, and guarantee every lock taken along
// the way is released exactly once - on success, on a dispatch failure,
// and on a resolution/authorisation failure alike.
func (f *CallFrame) InvokeSNode(target Target, fnIdent string, input codec.Value, moved []ids.ValueId) (codec.Value, []ids.ValueId, error) {
	if err := f.Cost.Charge(f.Fees.EngineRun, "invoke_snode:"+fnIdent); err != nil {
		return codec.Value{}, nil, err
	}

	movedEntries, err := f.takeMoved(moved)
	if err != nil {
		return codec.Value{}, nil, err
	}

	exec, rules, acquired, err := f.resolve(target, fnIdent, input, movedEntries)
	if err != nil {
		f.releaseLocks(acquired)
		f.restoreMoved(movedEntries)
		return codec.Value{}, nil, err
	}

	if len(acquired) > 0 {
		if err := f.Cost.Charge(f.Fees.SubstateLock*uint64(len(acquired)), "take_lock"); err != nil {
			f.releaseLocks(acquired)
			f.restoreMoved(movedEntries)
			return codec.Value{}, nil, err
		}
	}

	if len(rules) > 0 {
		zones := []*auth.AuthZone{f.AuthZone}
		if f.CallerAuthZone != nil {
			zones = append(zones, f.CallerAuthZone)
		}
		if err := auth.Check(rules, zones...); err != nil {
			f.releaseLocks(acquired)
			f.restoreMoved(movedEntries)
			return codec.Value{}, nil, err
		}
	}

	out, outIDs, err := f.dispatch(exec, fnIdent, input, movedEntries)
	f.releaseLocks(acquired)
	if err != nil {
		f.restoreMoved(movedEntries)
		return codec.Value{}, nil, err
	}
	return out, outIDs, nil
}

// invokeAdapter wraps InvokeSNode as a modules.InvokeFunc, the shape
// Static(TransactionProcessor).run needs without modules importing
// callframe.
func (f *CallFrame) invokeAdapter() modules.InvokeFunc {
	return func(target interface{}, fnIdent string, input codec.Value, moved []ids.ValueId) (codec.Value, []ids.ValueId, error) {
		t, ok := target.(Target)
		if !ok {
			return codec.Value{}, nil, fmt.Errorf("callframe: manifest instruction target is not a callframe.Target (%T)", target)
		}
		return f.InvokeSNode(t, fnIdent, input, moved)
	}
}

// dispatch is run(): it executes an already-resolved, already-authorised
// SNodeExecution. A Scrypto execution spins up a genuine child frame with
// its own auth-zone and worktop. The transaction processor does not: it
// runs its manifest on this same frame, against this frame's auth-zone and
// worktop. Everything else is simple bookkeeping this frame performs
// directly.
func (f *CallFrame) dispatch(exec SNodeExecution, fnIdent string, input codec.Value, moved map[string]movedEntry) (codec.Value, []ids.ValueId, error) {
	switch e := exec.(type) {
	case StaticExecution:
		return f.runStatic(e, fnIdent, input, moved)
	case ConsumedExecution:
		return f.runConsumed(e, fnIdent, input)
	case AuthZoneExecution:
		return f.runAuthZoneOp(fnIdent, input, moved)
	case WorktopExecution:
		return f.runWorktopOp(fnIdent, input, moved)
	case ValueRefExecution:
		return f.runValueRef(e, fnIdent, input)
	case ResourceManagerExecution:
		return f.runResourceManager(e, fnIdent, input)
	case TrackedVaultExecution:
		return f.runTrackedVault(e, fnIdent, input, moved)
	case ScryptoExecution:
		return f.runScryptoChild(e, fnIdent, input)
	default:
		return codec.Value{}, nil, fmt.Errorf("callframe: unknown execution %T", exec)
	}
}

// runStatic dispatches to one of the three built-in static modules plus
// the transaction processor (§4.5 Static).
func (f *CallFrame) runStatic(e StaticExecution, fnIdent string, input codec.Value, moved map[string]movedEntry) (codec.Value, []ids.ValueId, error) {
	switch e.Module {
	case StaticSystem:
		return f.runStaticSystem(fnIdent)
	case StaticResource:
		return f.runStaticResource(fnIdent, input)
	case StaticPackage:
		return f.runStaticPackage(fnIdent, input)
	case StaticTransactionProcessor:
		return f.runStaticTransactionProcessor(fnIdent)
	default:
		return codec.Value{}, nil, fmt.Errorf("callframe: unknown static module %q", e.Module)
	}
}

func (f *CallFrame) runStaticSystem(fnIdent string) (codec.Value, []ids.ValueId, error) {
	if fnIdent != "epoch" {
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
	epoch, err := modules.SystemEpoch(f.Track)
	if err != nil {
		return codec.Value{}, nil, err
	}
	return codec.Uint64(epoch), nil, nil
}

// runStaticResource implements Static(Resource) create: mints a fresh
// resource address, persists its metadata substate, and registers its
// auth rules (mint/withdraw/vault_auth all default to AllowAll - a
// deployment that wants narrower rules registers them directly against
// the ResourceRegistry rather than through a manifest instruction, since
// a Rule tree has no structural-codec encoding in this reference build).
func (f *CallFrame) runStaticResource(fnIdent string, input codec.Value) (codec.Value, []ids.ValueId, error) {
	if fnIdent != "create" {
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
	address := addr.NewResource(hashFromUUID(f.Track.NextID(track.NamespaceResource)))
	f.Track.CreateUUIDValue(address, track.ResourceSubstate{Metadata: input})
	f.Resources.Register(&modules.ResourceManager{Address: address})
	return codec.RawBytes(address.Key()), nil, nil
}

// runStaticPackage implements Static(Package) publish: deploys code bytes
// under a freshly minted package address. Its ABI, if any, is registered
// separately against the shared abi.Registry (deployment time, not a
// manifest instruction - an ABI is Go-level FunctionSpec data with no
// structural-codec encoding either).
func (f *CallFrame) runStaticPackage(fnIdent string, input codec.Value) (codec.Value, []ids.ValueId, error) {
	if fnIdent != "publish" {
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
	address := addr.NewPackage(hashFromUUID(f.Track.NextID(track.NamespacePackage)))
	f.Track.CreateUUIDValue(address, track.PackageSubstate{Code: input.Bytes})
	return codec.RawBytes(address.Key()), nil, nil
}

// runStaticTransactionProcessor implements Static(TransactionProcessor)
// run: executes this frame's Manifest via modules.RunManifest, each
// instruction re-entering InvokeSNode on this same frame.
func (f *CallFrame) runStaticTransactionProcessor(fnIdent string) (codec.Value, []ids.ValueId, error) {
	if fnIdent != "run" {
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
	outputs, err := modules.RunManifest(f.Manifest, f.invokeAdapter())
	if err != nil {
		return codec.Value{}, nil, err
	}
	return codec.VecOf(outputs...), nil, nil
}

// runConsumed operates on a value the manifest moved into this call with
// no intention of getting it back: burning a bucket, or dropping a proof
// outright rather than returning it to an auth-zone.
func (f *CallFrame) runConsumed(e ConsumedExecution, fnIdent string, _ codec.Value) (codec.Value, []ids.ValueId, error) {
	switch v := e.Value.(type) {
	case valuegraph.Bucket:
		if fnIdent != "burn" {
			return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
		}
		return codec.Uint64(modules.BucketAmount(v)), nil, nil
	case valuegraph.Proof:
		if fnIdent != "drop" {
			return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
		}
		return codec.Unit(), nil, nil
	default:
		return codec.Value{}, nil, fmt.Errorf("callframe: %s cannot be consumed directly", e.Value.Kind())
	}
}

// runAuthZoneOp implements the AuthZone collaborator's three entry points
// against this frame's own auth-zone (§4.5 AuthZone(this)).
func (f *CallFrame) runAuthZoneOp(fnIdent string, _ codec.Value, moved map[string]movedEntry) (codec.Value, []ids.ValueId, error) {
	switch fnIdent {
	case "push":
		entry, ok := soleMoved(moved)
		if !ok {
			return codec.Value{}, nil, fmt.Errorf("callframe: auth_zone.push requires exactly one moved proof")
		}
		proof, ok := entry.cell.Value.(valuegraph.Proof)
		if !ok {
			return codec.Value{}, nil, fmt.Errorf("callframe: auth_zone.push requires a Proof, got %s", entry.cell.Value.Kind())
		}
		modules.AuthZonePush(f.AuthZone, proof)
		return codec.Unit(), nil, nil
	case "proofs":
		proofs := modules.AuthZoneProofs(f.AuthZone)
		amounts := make([]codec.Value, len(proofs))
		for i, p := range proofs {
			amounts[i] = codec.Uint64(p.Amount)
		}
		return codec.VecOf(amounts...), nil, nil
	case "clear":
		modules.AuthZoneClear(f.AuthZone)
		return codec.Unit(), nil, nil
	default:
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
}

// runWorktopOp implements the Worktop collaborator's entry points against
// the transaction-wide worktop (§4.5 Worktop(this)). "take"/"take_all"
// hand back a freshly owned Bucket id; "put" consumes the moved bucket.
func (f *CallFrame) runWorktopOp(fnIdent string, input codec.Value, moved map[string]movedEntry) (codec.Value, []ids.ValueId, error) {
	switch fnIdent {
	case "put":
		entry, ok := soleMoved(moved)
		if !ok {
			return codec.Value{}, nil, fmt.Errorf("callframe: worktop.put requires exactly one moved bucket")
		}
		bucket, ok := entry.cell.Value.(valuegraph.Bucket)
		if !ok {
			return codec.Value{}, nil, fmt.Errorf("callframe: worktop.put requires a Bucket, got %s", entry.cell.Value.Kind())
		}
		if err := f.Worktop.Put(bucket); err != nil {
			return codec.Value{}, nil, err
		}
		return codec.Unit(), nil, nil

	case "take":
		resource, amount, err := decodeResourceAmount(input)
		if err != nil {
			return codec.Value{}, nil, err
		}
		bucket, err := f.Worktop.Take(resource, amount)
		if err != nil {
			return codec.Value{}, nil, err
		}
		id, err := f.CreateValue(bucket)
		if err != nil {
			return codec.Value{}, nil, err
		}
		return codec.Unit(), []ids.ValueId{id}, nil

	case "take_all":
		resource, err := addr.Decode(input.Bytes)
		if err != nil {
			return codec.Value{}, nil, err
		}
		bucket, ok := f.Worktop.TakeAll(resource)
		if !ok {
			bucket = valuegraph.Bucket{Resource: resource}
		}
		id, err := f.CreateValue(bucket)
		if err != nil {
			return codec.Value{}, nil, err
		}
		return codec.Unit(), []ids.ValueId{id}, nil

	default:
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
}

func decodeResourceAmount(input codec.Value) (addr.Address, uint64, error) {
	if input.Kind != codec.KindStruct || len(input.Fields) != 2 {
		return addr.Address{}, 0, fmt.Errorf("callframe: expected a (resource, amount) struct input")
	}
	resource, err := addr.Decode(input.Fields[0].Bytes)
	if err != nil {
		return addr.Address{}, 0, err
	}
	return resource, input.Fields[1].Uint, nil
}

// runValueRef operates on an owned or borrowed in-memory value by id,
// without consuming it: bucket/proof introspection and the split/lock
// operations that mutate the referenced cell in place while minting a
// freshly owned sibling value.
func (f *CallFrame) runValueRef(e ValueRefExecution, fnIdent string, input codec.Value) (codec.Value, []ids.ValueId, error) {
	cell, ok := f.cellFor(e.ID)
	if !ok {
		return codec.Value{}, nil, &engineerr.ValueNotFoundError{ID: e.ID}
	}

	switch v := cell.Value.(type) {
	case valuegraph.Bucket:
		switch fnIdent {
		case "amount":
			return codec.Uint64(modules.BucketAmount(v)), nil, nil
		case "take":
			taken, remainder, err := modules.BucketTake(v, input.Uint)
			if err != nil {
				return codec.Value{}, nil, err
			}
			cell.Value = remainder
			id, err := f.CreateValue(taken)
			if err != nil {
				return codec.Value{}, nil, err
			}
			return codec.Unit(), []ids.ValueId{id}, nil
		case "create_proof":
			locked, proof := modules.BucketCreateProof(v)
			cell.Value = locked
			id, err := f.CreateValue(proof)
			if err != nil {
				return codec.Value{}, nil, err
			}
			return codec.Unit(), []ids.ValueId{id}, nil
		default:
			return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
		}

	case valuegraph.Proof:
		switch fnIdent {
		case "amount":
			return codec.Uint64(modules.ProofAmount(v)), nil, nil
		case "clone":
			id, err := f.CreateValue(modules.ProofClone(v))
			if err != nil {
				return codec.Value{}, nil, err
			}
			return codec.Unit(), []ids.ValueId{id}, nil
		default:
			return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
		}

	case valuegraph.Vault:
		if fnIdent != "amount" {
			return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
		}
		return codec.Uint64(modules.VaultAmount(v)), nil, nil

	default:
		return codec.Value{}, nil, fmt.Errorf("callframe: %s has no ref operations", cell.Value.Kind())
	}
}

// runResourceManager operates on a deployed resource's metadata substate
// and mints fresh buckets. This reference engine tracks no circulating
// supply counter on ResourceSubstate, so "mint" is unconstrained beyond
// the MintAuth rule already checked before dispatch reached here - a
// fuller build would debit/credit a supply field alongside the bucket.
func (f *CallFrame) runResourceManager(e ResourceManagerExecution, fnIdent string, input codec.Value) (codec.Value, []ids.ValueId, error) {
	sv, err := f.Track.ReadValue(e.Address)
	if err != nil {
		return codec.Value{}, nil, err
	}
	resource, ok := sv.(track.ResourceSubstate)
	if !ok {
		return codec.Value{}, nil, fmt.Errorf("callframe: substate at %s is not a resource", e.Address)
	}

	switch fnIdent {
	case "metadata":
		return resource.Metadata, nil, nil
	case "mint":
		id, err := f.CreateValue(valuegraph.Bucket{Resource: e.Address, Amount: input.Uint})
		if err != nil {
			return codec.Value{}, nil, err
		}
		return codec.Unit(), []ids.ValueId{id}, nil
	default:
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
}

// runTrackedVault operates on a durable vault substate already locked
// mutable by the Dispatcher (§4.5 TrackedVault). "withdraw" mints a
// freshly owned Bucket; "deposit" consumes the moved bucket the manifest
// supplied alongside this target.
func (f *CallFrame) runTrackedVault(e TrackedVaultExecution, fnIdent string, input codec.Value, moved map[string]movedEntry) (codec.Value, []ids.ValueId, error) {
	sv, err := f.Track.ReadValue(e.Address)
	if err != nil {
		return codec.Value{}, nil, err
	}
	vault, ok := sv.(track.VaultSubstate)
	if !ok {
		return codec.Value{}, nil, fmt.Errorf("callframe: substate at %s is not a vault", e.Address)
	}

	switch fnIdent {
	case "amount":
		return codec.Uint64(vault.Amount), nil, nil

	case "withdraw":
		updated, bucket, err := modules.VaultWithdraw(valuegraph.Vault{Resource: vault.Resource, Amount: vault.Amount}, input.Uint)
		if err != nil {
			return codec.Value{}, nil, err
		}
		if err := f.Track.WriteValue(e.Address, track.VaultSubstate{Resource: updated.Resource, Amount: updated.Amount}); err != nil {
			return codec.Value{}, nil, err
		}
		id, err := f.CreateValue(bucket)
		if err != nil {
			return codec.Value{}, nil, err
		}
		return codec.Unit(), []ids.ValueId{id}, nil

	case "deposit":
		entry, ok := soleMoved(moved)
		if !ok {
			return codec.Value{}, nil, fmt.Errorf("callframe: vault.deposit requires exactly one moved bucket")
		}
		bucket, ok := entry.cell.Value.(valuegraph.Bucket)
		if !ok {
			return codec.Value{}, nil, fmt.Errorf("callframe: vault.deposit requires a Bucket, got %s", entry.cell.Value.Kind())
		}
		updated, err := modules.VaultDeposit(valuegraph.Vault{Resource: vault.Resource, Amount: vault.Amount}, bucket)
		if err != nil {
			return codec.Value{}, nil, err
		}
		if err := f.Track.WriteValue(e.Address, track.VaultSubstate{Resource: updated.Resource, Amount: updated.Amount}); err != nil {
			return codec.Value{}, nil, err
		}
		return codec.Unit(), nil, nil

	default:
		return codec.Value{}, nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent}
	}
}

// runScryptoChild spins up a genuine child frame, runs scripted blueprint
// code through the codert collaborator, validates the result against the
// package's declared ABI, and enforces the drop-failure / worktop /
// auth-zone checks every call boundary requires (§4.4 steps 6-8).
func (f *CallFrame) runScryptoChild(e ScryptoExecution, fnIdent string, input codec.Value) (codec.Value, []ids.ValueId, error) {
	// A component method's export must resolve through the ABI, since the
	// Dispatcher already used it to look up method_authorization; a
	// function-level (no component) call falls back to fnIdent verbatim
	// when the blueprint carries no formal ABI registration, since a
	// ClosureRuntime's closures are keyed by name directly.
	export := fnIdent
	if e.Component != nil {
		resolved, err := f.ABI.ResolveExport(e.Blueprint, fnIdent)
		if err != nil {
			return codec.Value{}, nil, err
		}
		export = resolved
	} else if resolved, err := f.ABI.ResolveExport(e.Blueprint, fnIdent); err == nil {
		export = resolved
	}
	if raw, err := codec.ToJSON(input); err == nil {
		var invalid *engineerr.InvalidFnInputError
		if verr := f.ABI.ValidateInput(e.Blueprint, fnIdent, raw); errors.As(verr, &invalid) {
			return codec.Value{}, nil, verr
		}
	}

	instance, err := f.Runtime.Instrument(e.Code)
	if err != nil {
		return codec.Value{}, nil, &engineerr.InvokeError{Cause: err}
	}

	// The component "self" is borrowed, not owned: it must not trip the
	// child frame's drop-failure check, and a component already shared
	// with this frame gets the very *Cell pointer passed through so a
	// mutation is visible to the caller without any explicit write-back.
	// A component with no live cell in this frame (method called straight
	// off its Track substate) gets a fresh cell that is written back to
	// Track explicitly once the call returns.
	child := f.newChild()
	child.AuthZone = auth.NewAuthZone()
	child.Worktop = modules.NewWorktop()
	var componentCell *valuegraph.Cell
	var componentFromTrack bool
	if e.Component != nil {
		key := e.Component.String()
		if cell, ok := f.cellFor(*e.Component); ok {
			child.borrowed[key] = cell
			componentCell = cell
		} else {
			sv, err := f.Track.ReadValue(e.Component.Address)
			if err != nil {
				return codec.Value{}, nil, err
			}
			comp, ok := sv.(track.ComponentSubstate)
			if !ok {
				return codec.Value{}, nil, fmt.Errorf("callframe: substate at %s is not a component", e.Component.Address)
			}
			componentCell = &valuegraph.Cell{Value: &valuegraph.Component{
				PackageAddress: comp.PackageAddress,
				Blueprint:      comp.Blueprint,
				State:          comp.State,
				Children:       valuegraph.NewInMemoryChildren(),
			}}
			child.borrowed[key] = componentCell
			componentFromTrack = true
		}
	}

	out, err := instance.Invoke(export, input, child)
	if err != nil {
		child.AuthZone.Clear()
		return codec.Value{}, nil, &engineerr.InvokeError{Cause: err}
	}

	if componentFromTrack {
		comp := componentCell.Value.(*valuegraph.Component)
		if err := f.Track.WriteValue(e.Component.Address, track.ComponentSubstate{
			PackageAddress: comp.PackageAddress,
			Blueprint:      comp.Blueprint,
			State:          comp.State,
		}); err != nil {
			child.AuthZone.Clear()
			return codec.Value{}, nil, err
		}
	}

	leftover, err := child.sweepOwned()
	if err != nil {
		child.AuthZone.Clear()
		return codec.Value{}, nil, err
	}
	if !child.Worktop.Empty() {
		return codec.Value{}, nil, fmt.Errorf("callframe: call into %s.%s returned with a non-empty worktop", e.Blueprint, fnIdent)
	}
	child.AuthZone.Clear()

	if raw, err := codec.ToJSON(out); err == nil {
		var invalid *engineerr.InvalidFnOutputError
		if verr := f.ABI.ValidateOutput(e.Blueprint, fnIdent, raw); errors.As(verr, &invalid) {
			return codec.Value{}, nil, verr
		}
	}

	outIDs := make([]ids.ValueId, 0, len(leftover))
	for _, entry := range leftover {
		f.own(entry.id, entry.cell.Value)
		outIDs = append(outIDs, entry.id)
	}

	return out, outIDs, nil
}
