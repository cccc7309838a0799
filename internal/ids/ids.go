// Package ids implements the engine's value identifiers: ValueId, the
// tagged union naming every in-memory value a frame can hold, and
// AddressPath, the single-hop step used to walk from a root owned value
// into a nested child. Both are natural sum types; dispatch throughout the
// engine is by exhaustive type switch over these interfaces, never by a
// shared integer tag field.
package ids

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/invariant"
)

// ValueId names one in-memory or durable value within a transaction.
// Global() reports whether the id is independently resolvable as a
// substate (Component/Package/Resource/NonFungibles) or whether it only
// has meaning relative to the frame or ancestor that holds it
// (Bucket/Proof/Vault/KeyValueStore).
type ValueId interface {
	isValueId()
	Global() bool
	String() string
}

// BucketId is a transaction-local handle to a movable resource bucket.
// Bucket ids are never derived from the transaction hash: they are a
// simple monotonic counter, since buckets never outlive the transaction.
type BucketId struct{ ID uint32 }

func (BucketId) isValueId()    {}
func (BucketId) Global() bool  { return false }
func (b BucketId) String() string { return fmt.Sprintf("Bucket(%d)", b.ID) }

// ProofId is a transaction-local handle to a capability witness.
type ProofId struct{ ID uint32 }

func (ProofId) isValueId()    {}
func (ProofId) Global() bool  { return false }
func (p ProofId) String() string { return fmt.Sprintf("Proof(%d)", p.ID) }

// VaultId names a durable resource container. Vaults are always nested
// inside a component; they are never directly global, so the id alone
// (without the ancestor path it was reached through) is not enough to
// find one in the SubstateStore.
type VaultId struct{ ID uuid.UUID }

func (VaultId) isValueId()    {}
func (VaultId) Global() bool  { return false }
func (v VaultId) String() string { return fmt.Sprintf("Vault(%s)", v.ID) }

// KeyValueStoreId names a nested key-value store.
type KeyValueStoreId struct{ ID uuid.UUID }

func (KeyValueStoreId) isValueId()    {}
func (KeyValueStoreId) Global() bool  { return false }
func (k KeyValueStoreId) String() string { return fmt.Sprintf("KeyValueStore(%s)", k.ID) }

// ComponentId names a component instance, local or global depending on
// the kind of address it carries.
type ComponentId struct{ Address addr.Address }

func (ComponentId) isValueId() {}
func (c ComponentId) Global() bool {
	return c.Address.Kind() == addr.GlobalComponent
}
func (c ComponentId) String() string { return fmt.Sprintf("Component(%s)", c.Address) }

// PackageId names a deployed package. Packages are always global.
type PackageId struct{ Address addr.Address }

func (PackageId) isValueId()   {}
func (PackageId) Global() bool { return true }
func (p PackageId) String() string { return fmt.Sprintf("Package(%s)", p.Address) }

// ResourceId names an entry in the global resource registry. Resources
// are always global.
type ResourceId struct{ Address addr.Address }

func (ResourceId) isValueId()   {}
func (ResourceId) Global() bool { return true }
func (r ResourceId) String() string { return fmt.Sprintf("Resource(%s)", r.Address) }

// NonFungiblesId names the non-fungible unit map of a resource.
type NonFungiblesId struct{ Resource addr.Address }

func (NonFungiblesId) isValueId()   {}
func (NonFungiblesId) Global() bool { return true }
func (n NonFungiblesId) String() string {
	return fmt.Sprintf("NonFungibles(%s)", n.Resource)
}

// Equal reports whether two ValueIds name the same value. Equality is by
// concrete type and payload; ids of different kinds are never equal even
// if an accidental numeric collision occurred.
func Equal(a, b ValueId) bool {
	switch av := a.(type) {
	case BucketId:
		bv, ok := b.(BucketId)
		return ok && av.ID == bv.ID
	case ProofId:
		bv, ok := b.(ProofId)
		return ok && av.ID == bv.ID
	case VaultId:
		bv, ok := b.(VaultId)
		return ok && av.ID == bv.ID
	case KeyValueStoreId:
		bv, ok := b.(KeyValueStoreId)
		return ok && av.ID == bv.ID
	case ComponentId:
		bv, ok := b.(ComponentId)
		return ok && av.Address.Equal(bv.Address)
	case PackageId:
		bv, ok := b.(PackageId)
		return ok && av.Address.Equal(bv.Address)
	case ResourceId:
		bv, ok := b.(ResourceId)
		return ok && av.Address.Equal(bv.Address)
	case NonFungiblesId:
		bv, ok := b.(NonFungiblesId)
		return ok && av.Resource.Equal(bv.Resource)
	default:
		invariant.Unreachable("unknown ValueId concrete type %T", a)
		return false
	}
}

// AddressPath is one hop used to walk from a root owned value into a
// nested child: either another ValueId (descending into a component's
// child) or a raw key (descending into a key-value store entry).
type AddressPath interface {
	isAddressPath()
	String() string
}

// ValueStep descends into a child named by a ValueId (a nested component,
// vault, or key-value store).
type ValueStep struct{ ID ValueId }

func (ValueStep) isAddressPath()    {}
func (v ValueStep) String() string { return v.ID.String() }

// KeyStep descends into a key-value store entry named by its raw key
// bytes (the already-encoded structural-codec key, not a ValueId).
type KeyStep struct{ Key []byte }

func (KeyStep) isAddressPath() {}
func (k KeyStep) String() string {
	return fmt.Sprintf("Key(%x)", k.Key)
}

// Path is a sequence of hops from a root value down to a leaf.
type Path []AddressPath

// Append returns a new Path with one more hop, leaving the receiver
// untouched (paths are append-only per the tree invariant).
func (p Path) Append(step AddressPath) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = step
	return out
}

func (p Path) String() string {
	s := ""
	for i, step := range p {
		if i > 0 {
			s += "/"
		}
		s += step.String()
	}
	return s
}
