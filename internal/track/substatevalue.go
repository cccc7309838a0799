package track

import (
	"fmt"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/invariant"
)

// SubstateValue is the persisted mirror of REValue (§3): the shape Track
// caches while a substate is borrowed and ultimately what a receipt's
// Up/VirtualUp entries carry. It is encoded through the structural codec
// rather than a bespoke format, so every substate kind Track ever writes
// round-trips through the same canonical CBOR path component state does.
type SubstateValue interface {
	isSubstateValue()
	variant() uint8
}

// ResourceSubstate is the global resource-registry entry.
type ResourceSubstate struct{ Metadata codec.Value }

func (ResourceSubstate) isSubstateValue() {}
func (ResourceSubstate) variant() uint8   { return 0 }

// ComponentSubstate is a component's deployed blueprint plus its state blob.
type ComponentSubstate struct {
	PackageAddress addr.Address
	Blueprint      string
	State          codec.Value
}

func (ComponentSubstate) isSubstateValue() {}
func (ComponentSubstate) variant() uint8   { return 1 }

// PackageSubstate is deployed code.
type PackageSubstate struct{ Code []byte }

func (PackageSubstate) isSubstateValue() {}
func (PackageSubstate) variant() uint8   { return 2 }

// VaultSubstate is a durable resource container's persisted form.
type VaultSubstate struct {
	Resource addr.Address
	Amount   uint64
}

func (VaultSubstate) isSubstateValue() {}
func (VaultSubstate) variant() uint8   { return 3 }

// NonFungibleSubstate is one unit entry in a resource's non-fungible space.
// Present distinguishes a unit that was never minted (None) from one whose
// data happens to be the structural codec's unit value.
type NonFungibleSubstate struct {
	Value   codec.Value
	Present bool
}

func (NonFungibleSubstate) isSubstateValue() {}
func (NonFungibleSubstate) variant() uint8   { return 4 }

// KeyValueStoreEntrySubstate is one entry of a key-value store's persisted
// form, likewise an option over the structural value.
type KeyValueStoreEntrySubstate struct {
	Value   codec.Value
	Present bool
}

func (KeyValueStoreEntrySubstate) isSubstateValue() {}
func (KeyValueStoreEntrySubstate) variant() uint8   { return 5 }

// Encode exposes encodeSubstate for the commit protocol (internal/receipt),
// which must serialise a receipt's Up entries the same way Track itself
// would before handing them to a SubstateStore.
func Encode(sv SubstateValue) ([]byte, error) { return encodeSubstate(sv) }

// Decode exposes decodeSubstate for callers (tests, the commit protocol)
// that need to read back what Track or a receipt wrote.
func Decode(data []byte) (SubstateValue, error) { return decodeSubstate(data) }

// encodeSubstate converts a SubstateValue to the structural codec's value
// model and serialises it, so SubstateStore only ever sees opaque bytes.
func encodeSubstate(sv SubstateValue) ([]byte, error) {
	var v codec.Value
	switch s := sv.(type) {
	case ResourceSubstate:
		v = codec.EnumOf(s.variant(), s.Metadata)
	case ComponentSubstate:
		v = codec.EnumOf(s.variant(),
			codec.RawBytes(s.PackageAddress.Bytes()),
			codec.Text(s.Blueprint),
			s.State,
		)
	case PackageSubstate:
		v = codec.EnumOf(s.variant(), codec.RawBytes(s.Code))
	case VaultSubstate:
		v = codec.EnumOf(s.variant(),
			codec.RawBytes(s.Resource.Bytes()),
			codec.Uint64(s.Amount),
		)
	case NonFungibleSubstate:
		v = codec.EnumOf(s.variant(), codec.Bool(s.Present), s.Value)
	case KeyValueStoreEntrySubstate:
		v = codec.EnumOf(s.variant(), codec.Bool(s.Present), s.Value)
	default:
		invariant.Unreachable("unknown SubstateValue concrete type %T", sv)
	}
	return codec.Encode(v)
}

// decodeSubstate is the inverse of encodeSubstate.
func decodeSubstate(data []byte) (SubstateValue, error) {
	v, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("track: decode substate: %w", err)
	}
	if v.Kind != codec.KindEnum {
		return nil, fmt.Errorf("track: substate blob is not an enum value (kind %s)", v.Kind)
	}
	switch v.Variant {
	case 0:
		return ResourceSubstate{Metadata: field(v, 0)}, nil
	case 1:
		pkgAddr, err := addr.Decode(field(v, 0).Bytes)
		if err != nil {
			return nil, fmt.Errorf("track: decode component package address: %w", err)
		}
		return ComponentSubstate{
			PackageAddress: pkgAddr,
			Blueprint:      field(v, 1).Text,
			State:          field(v, 2),
		}, nil
	case 2:
		return PackageSubstate{Code: field(v, 0).Bytes}, nil
	case 3:
		resourceAddr, err := addr.Decode(field(v, 0).Bytes)
		if err != nil {
			return nil, fmt.Errorf("track: decode vault resource address: %w", err)
		}
		return VaultSubstate{Resource: resourceAddr, Amount: field(v, 1).Uint}, nil
	case 4:
		return NonFungibleSubstate{Present: field(v, 0).Bool, Value: field(v, 1)}, nil
	case 5:
		return KeyValueStoreEntrySubstate{Present: field(v, 0).Bool, Value: field(v, 1)}, nil
	default:
		return nil, fmt.Errorf("track: unknown substate variant %d", v.Variant)
	}
}

func field(v codec.Value, i int) codec.Value {
	if i >= len(v.Fields) {
		return codec.Value{}
	}
	return v.Fields[i]
}
