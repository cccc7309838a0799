package callframe

import (
	"fmt"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/codert"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/track"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// CallFrame implements codert.SystemApi: scripted blueprint code run by
// runScryptoChild talks to its child frame only through these nine
// methods plus Invoke (§4.4).

func (f *CallFrame) CreateValue(value valuegraph.REValue) (ids.ValueId, error) {
	var id ids.ValueId
	switch value.(type) {
	case valuegraph.Bucket:
		id = ids.BucketId{ID: f.Counters.nextBucket()}
	case valuegraph.Proof:
		id = ids.ProofId{ID: f.Counters.nextProof()}
	case valuegraph.Vault:
		id = ids.VaultId{ID: f.Track.NextID(track.NamespaceVault)}
	case *valuegraph.KeyValueStore:
		id = ids.KeyValueStoreId{ID: f.Track.NextID(track.NamespaceKeyValueStore)}
	case *valuegraph.Component:
		id = ids.ComponentId{Address: addr.NewGlobalComponent(hashFromUUID(f.Track.NextID(track.NamespaceComponent)))}
	default:
		return nil, fmt.Errorf("callframe: cannot create a value of kind %s", value.Kind())
	}
	f.own(id, value)
	return id, nil
}

func (f *CallFrame) DropValue(id ids.ValueId) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := id.String()
	if _, ok := f.owned[key]; !ok {
		return &engineerr.ValueNotFoundError{ID: id}
	}
	delete(f.owned, key)
	delete(f.ownedIDs, key)
	return nil
}

// GlobalizeValue persists an owned component's subtree into Track and
// returns its durable address (§4.4). Only a Component may be globalised
// in this reference build; Vault/KeyValueStore only ever persist as a
// globalised component's children (§3 invariant 5).
func (f *CallFrame) GlobalizeValue(id ids.ValueId) (addr.Address, error) {
	f.mu.Lock()
	cell, ok := f.owned[id.String()]
	f.mu.Unlock()
	if !ok {
		return addr.Address{}, &engineerr.ValueNotFoundError{ID: id}
	}
	comp, ok := cell.Value.(*valuegraph.Component)
	if !ok {
		return addr.Address{}, fmt.Errorf("callframe: only a component can be globalised, got %s", cell.Value.Kind())
	}
	cid, ok := id.(ids.ComponentId)
	if !ok {
		return addr.Address{}, fmt.Errorf("callframe: globalize_value id %s is not a component id", id)
	}
	f.Track.CreateUUIDValue(cid.Address, track.ComponentSubstate{
		PackageAddress: comp.PackageAddress,
		Blueprint:      comp.Blueprint,
		State:          comp.State,
	})
	if comp.Children != nil && comp.Children.Len() > 0 {
		if err := f.Track.InsertObjects(comp.Children.All(), cid.Address); err != nil {
			return addr.Address{}, err
		}
	}
	f.mu.Lock()
	delete(f.owned, id.String())
	delete(f.ownedIDs, id.String())
	f.mu.Unlock()
	return cid.Address, nil
}

func (f *CallFrame) BorrowValue(id ids.ValueId) (valuegraph.REValue, error) {
	cell, ok := f.cellFor(id)
	if !ok {
		return nil, &engineerr.ValueNotFoundError{ID: id}
	}
	return cell.Value, nil
}

// BorrowValueMut is identical to BorrowValue: the returned value is a copy
// taken from a shared *Cell, and the only way to commit a mutation is
// through ReturnValueMut.
func (f *CallFrame) BorrowValueMut(id ids.ValueId) (valuegraph.REValue, error) {
	return f.BorrowValue(id)
}

func (f *CallFrame) ReturnValueMut(id ids.ValueId, value valuegraph.REValue) error {
	cell, ok := f.cellFor(id)
	if !ok {
		return &engineerr.ValueNotFoundError{ID: id}
	}
	cell.Value = value
	return nil
}

func (f *CallFrame) ReadValueData(address codert.SubstateAddress) (codec.Value, error) {
	switch a := address.(type) {
	case codert.ComponentOffset:
		cell, ok := f.cellFor(a.Component)
		if !ok {
			return codec.Value{}, &engineerr.InvalidDataAccessError{ID: a.Component}
		}
		comp, ok := cell.Value.(*valuegraph.Component)
		if !ok {
			return codec.Value{}, fmt.Errorf("callframe: %s is not a component", a.Component)
		}
		return comp.State, nil

	case codert.KeyValueEntry:
		cell, ok := f.cellFor(a.Store)
		if !ok {
			return codec.Value{}, &engineerr.InvalidDataAccessError{ID: a.Store}
		}
		kv, ok := cell.Value.(*valuegraph.KeyValueStore)
		if !ok {
			return codec.Value{}, fmt.Errorf("callframe: %s is not a key-value store", a.Store)
		}
		if v, ok := modules.KVStoreGet(kv, string(a.Key)); ok {
			return codec.Some(v), nil
		}
		return codec.None(), nil

	case codert.NonFungibleEntry:
		entry, err := f.Track.ReadKeyValue(addr.NewNonFungibleSet(a.Resource), a.UnitID)
		if err != nil {
			return codec.Value{}, err
		}
		if !entry.Present {
			return codec.None(), nil
		}
		return codec.Some(entry.Value), nil

	default:
		return codec.Value{}, fmt.Errorf("callframe: unknown substate address %T", address)
	}
}

func (f *CallFrame) WriteValueData(address codert.SubstateAddress, value codec.Value) error {
	switch a := address.(type) {
	case codert.ComponentOffset:
		cell, ok := f.cellFor(a.Component)
		if !ok {
			return &engineerr.InvalidDataAccessError{ID: a.Component}
		}
		comp, ok := cell.Value.(*valuegraph.Component)
		if !ok {
			return fmt.Errorf("callframe: %s is not a component", a.Component)
		}
		comp.State = value
		return nil

	case codert.KeyValueEntry:
		cell, ok := f.cellFor(a.Store)
		if !ok {
			return &engineerr.InvalidDataAccessError{ID: a.Store}
		}
		kv, ok := cell.Value.(*valuegraph.KeyValueStore)
		if !ok {
			return fmt.Errorf("callframe: %s is not a key-value store", a.Store)
		}
		modules.KVStorePut(kv, string(a.Key), value)
		return nil

	case codert.NonFungibleEntry:
		return f.Track.SetKeyValue(addr.NewNonFungibleSet(a.Resource), a.UnitID, track.KeyValueStoreEntrySubstate{Value: value, Present: true})

	default:
		return fmt.Errorf("callframe: unknown substate address %T", address)
	}
}

func (f *CallFrame) RemoveValueData(address codert.SubstateAddress) (codec.Value, error) {
	switch a := address.(type) {
	case codert.KeyValueEntry:
		cell, ok := f.cellFor(a.Store)
		if !ok {
			return codec.Value{}, &engineerr.InvalidDataAccessError{ID: a.Store}
		}
		kv, ok := cell.Value.(*valuegraph.KeyValueStore)
		if !ok {
			return codec.Value{}, fmt.Errorf("callframe: %s is not a key-value store", a.Store)
		}
		v, ok := modules.KVStoreGet(kv, string(a.Key))
		if !ok {
			return codec.None(), nil
		}
		delete(kv.Entries, string(a.Key))
		return codec.Some(v), nil

	case codert.NonFungibleEntry:
		entry, err := f.Track.ReadKeyValue(addr.NewNonFungibleSet(a.Resource), a.UnitID)
		if err != nil {
			return codec.Value{}, err
		}
		if err := f.Track.SetKeyValue(addr.NewNonFungibleSet(a.Resource), a.UnitID, track.KeyValueStoreEntrySubstate{Present: false}); err != nil {
			return codec.Value{}, err
		}
		if !entry.Present {
			return codec.None(), nil
		}
		return codec.Some(entry.Value), nil

	default:
		return codec.Value{}, fmt.Errorf("callframe: cannot remove data at %T", address)
	}
}

// Invoke lets scripted blueprint code issue a further cross-frame call.
// This reference SystemApi does not resolve a free-form target
// description back into a callframe.Target - the Dispatcher's target
// vocabulary is closed and typed, and reopening it to a string here would
// mean inventing an untyped second dispatch path. Blueprint code in this
// build can read/write its own state and move values via
// CreateValue/DropValue/GlobalizeValue; invoking another component's
// method is exercised at the engine-orchestration layer
// (CallFrame.InvokeSNode), not from inside scripted code.
func (f *CallFrame) Invoke(targetDescription string, fnIdent string, input codec.Value) (codec.Value, error) {
	return codec.Value{}, fmt.Errorf("callframe: nested invoke on %q.%s is not supported by this reference SystemApi", targetDescription, fnIdent)
}
