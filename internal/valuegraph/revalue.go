package valuegraph

import (
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/invariant"
)

// REValue is the heterogeneous in-memory value variant described in §3.
// Dispatch throughout the engine is by exhaustive type switch, never a
// shared tag field, so the compiler flags a missed case when a variant is
// added.
type REValue interface {
	isREValue()
	Kind() string
}

// Bucket holds an amount of a fungible or non-fungible-backed resource
// while it is not in any vault. Locked is true while outstanding proofs
// reference it; a locked bucket cannot be moved out of its frame
// (invariant 4).
type Bucket struct {
	Resource addr.Address
	Amount   uint64
	Locked   bool
}

func (Bucket) isREValue()    {}
func (Bucket) Kind() string { return "Bucket" }

// Proof is a capability witness over a resource. Restricted is set the
// moment a proof is observed on the receiving side of a call boundary
// (invariant 4); a restricted proof cannot re-enter a frame undemoted.
type Proof struct {
	Resource   addr.Address
	Amount     uint64
	Restricted bool
}

func (Proof) isREValue()    {}
func (Proof) Kind() string { return "Proof" }

// Vault is a durable resource container. Only Vault, Component, and
// KeyValueStore may persist through a substate boundary (invariant 5).
type Vault struct {
	Resource addr.Address
	Amount   uint64
}

func (Vault) isREValue()    {}
func (Vault) Kind() string { return "Vault" }

// KeyValueStore holds entries in memory until it is globalised (handed to
// Track) or dropped. Its Children are the nested values reachable through
// entries whose values themselves name a component, vault, or further
// key-value store.
type KeyValueStore struct {
	Entries  map[string]codec.Value
	Children *InMemoryChildren
}

func (*KeyValueStore) isREValue()    {}
func (*KeyValueStore) Kind() string { return "KeyValueStore" }

// Component is a stateful blueprint instance. Complex values adopt
// declared children at creation time; those children must be present and
// movable in the creating frame.
type Component struct {
	PackageAddress addr.Address
	Blueprint      string
	State          codec.Value
	Children       *InMemoryChildren
}

func (*Component) isREValue()    {}
func (*Component) Kind() string { return "Component" }

// Package holds a package's deployed code; blueprint ABIs are registered
// separately, in internal/abi.
type Package struct {
	Code []byte
}

func (Package) isREValue()    {}
func (Package) Kind() string { return "Package" }

// ResourceManager is the global registry entry for one resource.
type ResourceManager struct {
	Metadata codec.Value
}

func (ResourceManager) isREValue()    {}
func (ResourceManager) Kind() string { return "ResourceManager" }

// NonFungibles is the per-resource map of non-fungible unit data.
type NonFungibles struct {
	Units map[string]codec.Value
}

func (NonFungibles) isREValue()    {}
func (NonFungibles) Kind() string { return "NonFungibles" }

// Cell is one arena slot: a mutable holder for an REValue, reached by
// Location rather than by a chain of in-language references.
type Cell struct {
	Value REValue
}

// InMemoryChildren is the path-keyed map of nested values a Component or
// KeyValueStore owns: a key in a key-value store, a value-id for a
// nested component or vault. Keys are the canonical string form of an
// AddressPath step, since the step interface itself is not always
// comparable (an Address carries a byte slice).
type InMemoryChildren struct {
	entries map[string]*childEntry
}

type childEntry struct {
	cell *Cell
}

func NewInMemoryChildren() *InMemoryChildren {
	return &InMemoryChildren{entries: make(map[string]*childEntry)}
}

// GetChild walks one hop, returning the cell at that step if present.
// Callers must hold exclusive access to the root to avoid aliasing, per
// §4.2: this package does no locking of its own.
func (c *InMemoryChildren) GetChild(key string) (*Cell, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.cell, true
}

// GetChildMut is identical to GetChild: the returned *Cell is already a
// mutable handle, so there is no separate read/write accessor pair.
func (c *InMemoryChildren) GetChildMut(key string) (*Cell, bool) {
	return c.GetChild(key)
}

// Insert adopts one child value under the given step key, used both at
// component-state-assignment time and when a KeyValueStore entry's value
// names a nested value.
func (c *InMemoryChildren) Insert(key string, value REValue) {
	invariant.NotNil(value, "child value")
	c.entries[key] = &childEntry{cell: &Cell{Value: value}}
}

// InsertChildren bulk-adopts a map of children, used when a component's
// state assignment brings new sub-values into scope.
func (c *InMemoryChildren) InsertChildren(children map[string]REValue) {
	for key, value := range children {
		c.Insert(key, value)
	}
}

// Remove takes a child out of the map, used when a value moves out of
// its owning root (e.g. globalised, or taken by a child frame).
func (c *InMemoryChildren) Remove(key string) (REValue, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	delete(c.entries, key)
	return e.cell.Value, true
}

// All returns a shallow copy of the direct children, keyed the same way as
// Keys/GetChild. Used by Track's insert_objects to walk one level of a
// subtree without reaching into the unexported entries map.
func (c *InMemoryChildren) All() map[string]REValue {
	out := make(map[string]REValue, len(c.entries))
	for k, e := range c.entries {
		out[k] = e.cell.Value
	}
	return out
}

// Keys returns the direct child keys, not descending further.
func (c *InMemoryChildren) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len reports the number of direct children.
func (c *InMemoryChildren) Len() int { return len(c.entries) }

// AllDescendants performs a depth-first enumeration of every key
// reachable from this subtree, used to remove stale visibility entries
// when a root moves (§4.2).
func (c *InMemoryChildren) AllDescendants() []string {
	var out []string
	for key, e := range c.entries {
		out = append(out, key)
		switch v := e.cell.Value.(type) {
		case *Component:
			if v.Children != nil {
				for _, d := range v.Children.AllDescendants() {
					out = append(out, key+"/"+d)
				}
			}
		case *KeyValueStore:
			if v.Children != nil {
				for _, d := range v.Children.AllDescendants() {
					out = append(out, key+"/"+d)
				}
			}
		}
	}
	return out
}
