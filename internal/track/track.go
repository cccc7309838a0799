// Package track implements Track (§4.1): the single source of truth for
// persisted state during one transaction. It stages substates borrowed
// from a SubstateStore, buffers writes in memory until commit, and derives
// every fresh id a frame needs from the transaction hash plus a monotonic,
// namespaced counter.
package track

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/invariant"
	"github.com/ledgervm/engine/internal/substatestore"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// ReentrancyError reports a take_lock that would create a second mutable
// borrow (or any borrow on top of an existing mutable one) on an address.
type ReentrancyError struct{ Address string }

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("track: reentrancy on %s", e.Address)
}

// NotFoundError reports a take_lock whose address resolves to nothing, in
// up-substates, in Track's borrow table, or in the backing store.
type NotFoundError struct{ Address string }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("track: %s not found", e.Address)
}

// NoCurrentLockError reports read_value/take_value/write_value/
// release_lock called against an address with no active borrow.
type NoCurrentLockError struct{ Address string }

func (e *NoCurrentLockError) Error() string {
	return fmt.Sprintf("track: no current lock on %s", e.Address)
}

// WrongModeError reports take_value called against a Loaded (not
// LoadedMut) borrow.
type WrongModeError struct {
	Address string
	Want    string
	Have    string
}

func (e *WrongModeError) Error() string {
	return fmt.Sprintf("track: %s is %s, need %s", e.Address, e.Have, e.Want)
}

type borrowMode int

const (
	modeLoaded borrowMode = iota
	modeLoadedMut
	modeTaken
)

func (m borrowMode) String() string {
	switch m {
	case modeLoaded:
		return "Loaded"
	case modeLoadedMut:
		return "LoadedMut"
	case modeTaken:
		return "Taken"
	default:
		return "?"
	}
}

// borrowedSubstate is the BorrowedSubstate state machine from §3:
// Loaded(value, ref-count) / LoadedMut(value) / Taken.
type borrowedSubstate struct {
	mode     borrowMode
	value    SubstateValue
	refCount int
	// fromUp records whether this borrow's value was pulled out of the
	// up-substates buffer at take_lock time (as opposed to freshly fetched
	// from the store): on a non-mutating release it must be restored to
	// up-substates rather than merely dropped, or the uncommitted write it
	// represents would be lost.
	fromUp bool
}

// Track is the per-transaction substate cache and write buffer.
type Track struct {
	mu    sync.Mutex
	store substatestore.Store
	ids   *idFactory

	counters map[Namespace]uint64
	borrowed map[string]*borrowedSubstate

	downed        map[string]uint64
	virtualDowned map[string]bool
	up            map[string]SubstateValue
	virtualUp     map[string]bool
	newAddresses  []addr.Address
	logs          []string
}

// New builds a Track bound to a backing store and keyed on the hash of the
// transaction it is servicing.
func New(store substatestore.Store, txHash [32]byte) *Track {
	return &Track{
		store:         store,
		ids:           newIDFactory(txHash),
		counters:      make(map[Namespace]uint64),
		borrowed:      make(map[string]*borrowedSubstate),
		downed:        make(map[string]uint64),
		virtualDowned: make(map[string]bool),
		up:            make(map[string]SubstateValue),
		virtualUp:     make(map[string]bool),
	}
}

// Epoch reads the backing store's current epoch counter, exposed for the
// System static module (§4.5 Static(System)).
func (t *Track) Epoch() (uint64, error) {
	return t.store.GetEpoch()
}

// NextID derives the next fresh id in the given namespace, advancing that
// namespace's monotonic counter.
func (t *Track) NextID(ns Namespace) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[ns]++
	return t.ids.next(ns, t.counters[ns])
}

// Log appends one line to the transaction's log buffer, drained by
// ToReceipt.
func (t *Track) Log(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, line)
}

// TakeLock implements take_lock (§4.1).
func (t *Track) TakeLock(address addr.Address, mutable bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(address.Key())

	if existing, ok := t.borrowed[key]; ok {
		if mutable || existing.mode == modeLoadedMut {
			return &ReentrancyError{Address: address.String()}
		}
		existing.refCount++
		return nil
	}

	if sv, ok := t.up[key]; ok {
		delete(t.up, key)
		mode := modeLoaded
		if mutable {
			mode = modeLoadedMut
		}
		t.borrowed[key] = &borrowedSubstate{mode: mode, value: sv, refCount: 1, fromUp: true}
		return nil
	}

	sub, found, err := t.store.GetSubstate(address.Key())
	if err != nil {
		return fmt.Errorf("track: fetch %s: %w", address, err)
	}
	if !found {
		return &NotFoundError{Address: address.String()}
	}
	sv, err := decodeSubstate(sub.Value)
	if err != nil {
		return err
	}
	t.downed[key] = sub.PhysID
	mode := modeLoaded
	if mutable {
		mode = modeLoadedMut
	}
	t.borrowed[key] = &borrowedSubstate{mode: mode, value: sv, refCount: 1}
	return nil
}

// ReadValue implements read_value: requires a current lock in any mode but
// Taken.
func (t *Track) ReadValue(address addr.Address) (SubstateValue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(address.Key())
	b, ok := t.borrowed[key]
	if !ok {
		return nil, &NoCurrentLockError{Address: address.String()}
	}
	if b.mode == modeTaken {
		return nil, &NoCurrentLockError{Address: address.String()}
	}
	return b.value, nil
}

// TakeValue implements take_value: requires LoadedMut, replaces the entry
// with Taken.
func (t *Track) TakeValue(address addr.Address) (SubstateValue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(address.Key())
	b, ok := t.borrowed[key]
	if !ok {
		return nil, &NoCurrentLockError{Address: address.String()}
	}
	if b.mode != modeLoadedMut {
		return nil, &WrongModeError{Address: address.String(), Want: modeLoadedMut.String(), Have: b.mode.String()}
	}
	value := b.value
	b.mode = modeTaken
	b.value = nil
	return value, nil
}

// WriteValue implements write_value: installs a LoadedMut borrow, replacing
// whatever was there (Loaded or Taken).
func (t *Track) WriteValue(address addr.Address, value SubstateValue) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(address.Key())
	b, ok := t.borrowed[key]
	if !ok {
		return &NoCurrentLockError{Address: address.String()}
	}
	b.mode = modeLoadedMut
	b.value = value
	return nil
}

// ReleaseLock implements release_lock. A Taken borrow is caller misuse
// (every take_value must be paired with a write_value before release) and
// panics rather than returning an error, matching §4.1.
func (t *Track) ReleaseLock(address addr.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := string(address.Key())
	b, ok := t.borrowed[key]
	invariant.Precondition(ok, "release_lock called on %s with no active borrow", address)

	switch b.mode {
	case modeLoadedMut:
		t.up[key] = b.value
		delete(t.borrowed, key)
	case modeLoaded:
		b.refCount--
		if b.refCount <= 0 {
			if b.fromUp {
				t.up[key] = b.value
			}
			delete(t.borrowed, key)
		}
	case modeTaken:
		panic(fmt.Sprintf("track: release_lock misuse: %s was taken and never written back", address))
	}
}

// substateKey is the Address-then-raw-key-bytes concatenation §4.6 assigns
// to key-value-store entries: the parent's encoding followed by the key,
// with no separator (the parent encoding is itself fixed-width/self
// -delimiting, and the entry key is always the trailing remainder).
func substateKey(parent addr.Address, key []byte) []byte {
	out := make([]byte, 0, len(parent.Key())+len(key))
	out = append(out, parent.Key()...)
	out = append(out, key...)
	return out
}

// ReadKeyValue implements read_key_value: lazy, does not mark downed.
func (t *Track) ReadKeyValue(parent addr.Address, key []byte) (KeyValueStoreEntrySubstate, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	compositeKey := string(substateKey(parent, key))
	if sv, ok := t.up[compositeKey]; ok {
		entry, ok := sv.(KeyValueStoreEntrySubstate)
		invariant.Precondition(ok, "up-substate at a key-value-store entry key is not a KeyValueStoreEntrySubstate")
		return entry, nil
	}

	sub, found, err := t.store.GetSubstate(substateKey(parent, key))
	if err != nil {
		return KeyValueStoreEntrySubstate{}, fmt.Errorf("track: read_key_value: %w", err)
	}
	if !found {
		return KeyValueStoreEntrySubstate{Present: false}, nil
	}
	sv, err := decodeSubstate(sub.Value)
	if err != nil {
		return KeyValueStoreEntrySubstate{}, err
	}
	entry, ok := sv.(KeyValueStoreEntrySubstate)
	invariant.Precondition(ok, "stored substate at a key-value-store entry key is not a KeyValueStoreEntrySubstate")
	return entry, nil
}

// SetKeyValue implements set_key_value.
func (t *Track) SetKeyValue(parent addr.Address, key []byte, value KeyValueStoreEntrySubstate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw := substateKey(parent, key)
	compositeKey := string(raw)

	if _, alreadyUp := t.up[compositeKey]; !alreadyUp {
		sub, found, err := t.store.GetSubstate(raw)
		if err != nil {
			return fmt.Errorf("track: set_key_value: %w", err)
		}
		if found {
			t.downed[compositeKey] = sub.PhysID
		} else {
			t.virtualDowned[compositeKey] = true
		}
	}
	t.up[compositeKey] = value
	return nil
}

// CreateUUIDValue implements create_uuid_value: stages a new up entry and
// records the address as freshly created.
func (t *Track) CreateUUIDValue(address addr.Address, value SubstateValue) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.up[string(address.Key())] = value
	t.newAddresses = append(t.newAddresses, address)
}

// CreateNonFungibleSpace implements create_non_fungible_space: records a
// new virtual parent space for a resource's non-fungible units.
func (t *Track) CreateNonFungibleSpace(resource addr.Address) addr.Address {
	space := addr.NewNonFungibleSet(resource)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.virtualUp[string(space.Key())] = true
	t.newAddresses = append(t.newAddresses, space)
	return space
}

// CreateKeySpace implements create_key_space: records a new virtual parent
// space for a key-value store nested under parent.
func (t *Track) CreateKeySpace(parent addr.Address, id uuid.UUID) addr.Address {
	space := addr.NewKeyValueStore(parent, id)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.virtualUp[string(space.Key())] = true
	t.newAddresses = append(t.newAddresses, space)
	return space
}

// InsertObjects implements insert_objects: recursively descends a
// ValueGraph subtree, persisting each child. Vaults and Components become
// fresh uuid-addressed substates (components recurse on their own
// children); KeyValueStores additionally open their space and write every
// held entry.
func (t *Track) InsertObjects(children map[string]valuegraph.REValue, parent addr.Address) error {
	for _, child := range children {
		switch v := child.(type) {
		case valuegraph.Vault:
			id := t.NextID(NamespaceVault)
			a := parent.Child(addr.Vault, id)
			t.CreateUUIDValue(a, VaultSubstate{Resource: v.Resource, Amount: v.Amount})

		case *valuegraph.Component:
			id := t.NextID(NamespaceComponent)
			a := parent.Child(addr.LocalComponent, id)
			t.CreateUUIDValue(a, ComponentSubstate{
				PackageAddress: v.PackageAddress,
				Blueprint:      v.Blueprint,
				State:          v.State,
			})
			if v.Children != nil && v.Children.Len() > 0 {
				if err := t.InsertObjects(v.Children.All(), a); err != nil {
					return err
				}
			}

		case *valuegraph.KeyValueStore:
			id := t.NextID(NamespaceKeyValueStore)
			a := t.CreateKeySpace(parent, id)
			for key, entry := range v.Entries {
				if err := t.SetKeyValue(a, []byte(key), KeyValueStoreEntrySubstate{Value: entry, Present: true}); err != nil {
					return err
				}
			}
			if v.Children != nil && v.Children.Len() > 0 {
				if err := t.InsertObjects(v.Children.All(), a); err != nil {
					return err
				}
			}

		default:
			invariant.Unreachable("insert_objects: value of kind %s cannot be persisted as a child", child.Kind())
		}
	}
	return nil
}

// Receipt is the drained operation sequence to_receipt hands to the commit
// protocol (internal/receipt): everything downed, virtually downed, upped,
// and virtually upped during the transaction, plus the addresses it
// minted and the logs it emitted.
type Receipt struct {
	Downed        map[string]uint64
	VirtualDowned map[string]bool
	Up            map[string]SubstateValue
	VirtualUp     map[string]bool
	NewAddresses  []addr.Address
	Logs          []string
}

// ToReceipt implements to_receipt: drains Track's buffers into an ordered
// receipt and resets them, so a Track instance can only be committed once.
func (t *Track) ToReceipt() Receipt {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := Receipt{
		Downed:        t.downed,
		VirtualDowned: t.virtualDowned,
		Up:            t.up,
		VirtualUp:     t.virtualUp,
		NewAddresses:  append([]addr.Address(nil), t.newAddresses...),
		Logs:          append([]string(nil), t.logs...),
	}

	t.downed = make(map[string]uint64)
	t.virtualDowned = make(map[string]bool)
	t.up = make(map[string]SubstateValue)
	t.virtualUp = make(map[string]bool)
	t.newAddresses = nil
	t.logs = nil

	return r
}
