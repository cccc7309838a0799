// Package addr implements the canonical substate key encoding described in
// the engine's addressing model: every Address serialises deterministically
// to a byte key, local addresses carry their full ancestor path, and
// encoding is an append-only concatenation of fixed-width, self-delimiting
// per-hop encodings.
package addr

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgervm/engine/internal/invariant"
)

// Kind tags the entity a byte key addresses. The tag is the first byte of
// every encoded key, which is what makes the concatenation self-delimiting:
// a decoder always knows, from the next tag byte, how many further bytes to
// consume.
type Kind byte

const (
	Resource Kind = iota + 1
	GlobalComponent
	Package
	NonFungibleSet
	KeyValueStore
	Vault
	LocalComponent
)

func (k Kind) String() string {
	switch k {
	case Resource:
		return "Resource"
	case GlobalComponent:
		return "GlobalComponent"
	case Package:
		return "Package"
	case NonFungibleSet:
		return "NonFungibleSet"
	case KeyValueStore:
		return "KeyValueStore"
	case Vault:
		return "Vault"
	case LocalComponent:
		return "LocalComponent"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// hashWidth is the fixed width of the hash suffix carried by global
// addresses (Resource, GlobalComponent, Package): a 1-byte kind tag plus a
// 25-byte hash-derived suffix, matching the source system's entity address
// shape.
const hashWidth = 25

// hopWidth is the fixed width of one local hop: a 1-byte kind tag plus a
// 16-byte uuid. Fixed width is what lets the ancestor-path concatenation be
// parsed back without a separator.
const hopWidth = 1 + 16

// Address is the canonical, already-serialised substate key. Construction
// happens once through the New* functions below; after that an Address is
// an immutable byte string plus a tag telling you how to interpret it.
type Address struct {
	kind Kind
	key  []byte
}

// Hash is the fixed-width suffix carried by global entity addresses.
type Hash [hashWidth]byte

// NewResource builds a Resource address from its hash.
func NewResource(h Hash) Address {
	return Address{kind: Resource, key: tagged(byte(Resource), h[:])}
}

// NewGlobalComponent builds a GlobalComponent address from its hash.
func NewGlobalComponent(h Hash) Address {
	return Address{kind: GlobalComponent, key: tagged(byte(GlobalComponent), h[:])}
}

// NewPackage builds a Package address from its hash.
func NewPackage(h Hash) Address {
	return Address{kind: Package, key: tagged(byte(Package), h[:])}
}

// NewNonFungibleSet derives the per-resource non-fungible space by
// appending a zero byte to the resource's encoded key, per §4.6.
func NewNonFungibleSet(resource Address) Address {
	invariant.Precondition(resource.kind == Resource, "non-fungible set must be derived from a Resource address")
	key := make([]byte, 0, len(resource.key)+1)
	key = append(key, resource.key...)
	key = append(key, 0x00)
	return Address{kind: NonFungibleSet, key: key}
}

// NewKeyValueStore builds a local KeyValueStore address: the encoding of
// the owning ancestor (which may itself be a local address) followed by
// the leaf id.
func NewKeyValueStore(ancestor Address, id uuid.UUID) Address {
	return Address{kind: KeyValueStore, key: child(ancestor.key, byte(KeyValueStore), id)}
}

// NewVault builds a local Vault address.
func NewVault(ancestor Address, id uuid.UUID) Address {
	return Address{kind: Vault, key: child(ancestor.key, byte(Vault), id)}
}

// NewLocalComponent builds a local Component address nested under another
// component.
func NewLocalComponent(ancestor Address, id uuid.UUID) Address {
	return Address{kind: LocalComponent, key: child(ancestor.key, byte(LocalComponent), id)}
}

func tagged(tag byte, suffix []byte) []byte {
	key := make([]byte, 0, 1+len(suffix))
	key = append(key, tag)
	key = append(key, suffix...)
	return key
}

func child(ancestor []byte, tag byte, id uuid.UUID) []byte {
	key := make([]byte, 0, len(ancestor)+1+16)
	key = append(key, ancestor...)
	key = append(key, tag)
	key = append(key, id[:]...)
	return key
}

// Child extends this address by one local hop, implementing the tree
// invariant "a child's Address is parent.child(child-id)". Only the three
// local kinds may be children of a component.
func (a Address) Child(kind Kind, id uuid.UUID) Address {
	switch kind {
	case KeyValueStore:
		return NewKeyValueStore(a, id)
	case Vault:
		return NewVault(a, id)
	case LocalComponent:
		return NewLocalComponent(a, id)
	default:
		invariant.Unreachable("address kind %s cannot be a local child", kind)
		panic("unreachable")
	}
}

// Kind reports the entity kind this address addresses.
func (a Address) Kind() Kind { return a.kind }

// Bytes returns the canonical byte key, safe to hand to a SubstateStore.
func (a Address) Bytes() []byte {
	out := make([]byte, len(a.key))
	copy(out, a.key)
	return out
}

// Key is an alias for Bytes, matching the §6 SubstateStore vocabulary.
func (a Address) Key() []byte { return a.Bytes() }

// Equal reports whether two addresses encode to the same byte key.
func (a Address) Equal(other Address) bool {
	if a.kind != other.kind || len(a.key) != len(other.key) {
		return false
	}
	for i := range a.key {
		if a.key[i] != other.key[i] {
			return false
		}
	}
	return true
}

func (a Address) String() string {
	return fmt.Sprintf("%s(%s)", a.kind, hex.EncodeToString(a.key))
}

// Decode reconstructs the Kind of a byte key produced by this package and
// verifies it has a self-consistent shape, walking the tag stream using
// the fixed widths declared above. It satisfies the round-trip property
// encode(decode(key)) == key required by the testable properties: Decode
// never needs to recover the full ancestor chain (callers that need that
// keep it out of band), only to validate and echo the tag stream.
//
// A NonFungibleSet key carries no tag of its own: per §4.6 it is a
// Resource key with a zero byte appended, so it is told apart from a bare
// Resource key by trailing length alone.
func Decode(key []byte) (Address, error) {
	if len(key) == 0 {
		return Address{}, fmt.Errorf("addr: empty key")
	}
	rootTag := Kind(key[0])
	switch rootTag {
	case Resource:
		switch len(key) {
		case 1 + hashWidth:
			return finish(rootTag, key), nil
		case 1 + hashWidth + 1:
			if key[len(key)-1] != 0x00 {
				return Address{}, fmt.Errorf("addr: NonFungibleSet key must end in a zero byte")
			}
			return finish(NonFungibleSet, key), nil
		default:
			return Address{}, fmt.Errorf("addr: Resource key has wrong length %d", len(key))
		}
	case GlobalComponent, Package:
		if len(key) != 1+hashWidth {
			return Address{}, fmt.Errorf("addr: %s key has wrong length %d", rootTag, len(key))
		}
		return finish(rootTag, key), nil
	default:
		return Address{}, fmt.Errorf("addr: unknown root tag %d", key[0])
	}
}

func finish(kind Kind, key []byte) Address {
	out := make([]byte, len(key))
	copy(out, key)
	return Address{kind: kind, key: out}
}

// DecodeLocal reconstructs a local (component/vault/kv-store) address key,
// rooted at a GlobalComponent, validating the hop chain and reporting the
// kind of its last hop.
func DecodeLocal(key []byte) (Address, error) {
	if err := validateLocalChain(key); err != nil {
		return Address{}, err
	}
	pos := 1 + hashWidth
	last := Kind(key[0])
	for pos < len(key) {
		last = Kind(key[pos])
		pos += hopWidth
	}
	return finish(last, key), nil
}

func validateLocalChain(key []byte) error {
	if len(key) < 1+hashWidth {
		return fmt.Errorf("addr: local chain too short (%d bytes)", len(key))
	}
	rootTag := Kind(key[0])
	if rootTag != GlobalComponent {
		return fmt.Errorf("addr: local chain must be rooted at a GlobalComponent, got %s", rootTag)
	}
	pos := 1 + hashWidth
	if pos == len(key) {
		return fmt.Errorf("addr: local chain has no hops")
	}
	for pos < len(key) {
		if pos+hopWidth > len(key) {
			return fmt.Errorf("addr: local chain truncated at offset %d", pos)
		}
		hopTag := Kind(key[pos])
		switch hopTag {
		case KeyValueStore, Vault, LocalComponent:
			// valid
		default:
			return fmt.Errorf("addr: invalid hop tag %d at offset %d", key[pos], pos)
		}
		pos += hopWidth
	}
	return nil
}
