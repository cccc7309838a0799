// Package codec implements the stable structural codec required by §6:
// a value model of option/struct/enum/vec/map/primitive, encoded through
// github.com/fxamacker/cbor/v2 in canonical mode so that encoding order is
// deterministic and invariant 9 (every value round-trips byte-for-byte)
// holds.
//
// Address byte keys (internal/addr) deliberately do NOT go through this
// codec: they need a fixed-width, self-delimiting concatenation so an
// ancestor path can be walked back out of a flat byte string, which a
// variable-length CBOR integer would break. The split is a design
// decision, not an oversight - see DESIGN.md.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Kind tags the variant a Value holds.
type Kind string

const (
	KindUnit   Kind = "unit"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindUint   Kind = "uint"
	KindText   Kind = "text"
	KindBytes  Kind = "bytes"
	KindOption Kind = "option"
	KindVec    Kind = "vec"
	KindMap    Kind = "map"
	KindStruct Kind = "struct"
	KindEnum   Kind = "enum"
)

// Entry is one key/value pair of a Map value.
type Entry struct {
	Key   Value `cbor:"key"`
	Value Value `cbor:"value"`
}

// Value is the structural value model shared by component state, kv-store
// entries, and cross-frame call arguments/returns. Only one of the
// variant-specific fields is populated for a given Kind; the rest are left
// at their zero value so canonical encoding omits them.
type Value struct {
	Kind    Kind    `cbor:"kind"`
	Bool    bool    `cbor:"bool,omitempty"`
	Int     int64   `cbor:"int,omitempty"`
	Uint    uint64  `cbor:"uint,omitempty"`
	Text    string  `cbor:"text,omitempty"`
	Bytes   []byte  `cbor:"bytes,omitempty"`
	Some    *Value  `cbor:"some,omitempty"`
	Items   []Value `cbor:"items,omitempty"`
	Entries []Entry `cbor:"entries,omitempty"`
	Fields  []Value `cbor:"fields,omitempty"`
	Variant uint8   `cbor:"variant,omitempty"`
}

func Unit() Value             { return Value{Kind: KindUnit} }
func Bool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func Int64(v int64) Value     { return Value{Kind: KindInt, Int: v} }
func Uint64(v uint64) Value   { return Value{Kind: KindUint, Uint: v} }
func Text(s string) Value     { return Value{Kind: KindText, Text: s} }
func RawBytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// None is the empty option.
func None() Value { return Value{Kind: KindOption} }

// Some wraps a present option value.
func Some(v Value) Value {
	vv := v
	return Value{Kind: KindOption, Some: &vv}
}

// IsNone reports whether an option value carries nothing.
func (v Value) IsNone() bool { return v.Kind == KindOption && v.Some == nil }

func VecOf(items ...Value) Value { return Value{Kind: KindVec, Items: items} }

func MapOf(entries ...Entry) Value { return Value{Kind: KindMap, Entries: entries} }

// StructOf builds a positional-field struct value, mirroring a component's
// state blob or a function's argument tuple.
func StructOf(fields ...Value) Value { return Value{Kind: KindStruct, Fields: fields} }

// EnumOf builds a tagged enum value (a fixed variant index plus payload
// fields), mirroring Rust-style enum encoding.
func EnumOf(variant uint8, fields ...Value) Value {
	return Value{Kind: KindEnum, Variant: variant, Fields: fields}
}

// canonicalMode produces deterministic encodings: map keys sorted, no
// indefinite-length items, shortest-form integers - exactly what invariant
// 9 and testable property 5 require.
var canonicalMode = mustMode()

func mustMode() cbor.Mode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: failed to build canonical CBOR mode: %v", err))
	}
	return mode
}

// Encode serialises a Value using the canonical structural codec.
func Encode(v Value) ([]byte, error) {
	out, err := canonicalMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return out, nil
}

// Decode parses bytes produced by Encode back into a Value.
func Decode(data []byte) (Value, error) {
	var v Value
	if err := cbor.Unmarshal(data, &v); err != nil {
		return Value{}, fmt.Errorf("codec: decode: %w", err)
	}
	return v, nil
}

// ToJSON renders a Value as a plain JSON document, used only where a
// collaborator needs a JSON-native view of a value - the abi package's
// santhosh-tekuri/jsonschema/v5 validation, which operates on
// encoding/json-decoded data and has no notion of this package's CBOR
// framing.
func ToJSON(v Value) ([]byte, error) {
	native, err := toNative(v)
	if err != nil {
		return nil, fmt.Errorf("codec: to json: %w", err)
	}
	out, err := json.Marshal(native)
	if err != nil {
		return nil, fmt.Errorf("codec: to json: %w", err)
	}
	return out, nil
}

func toNative(v Value) (interface{}, error) {
	switch v.Kind {
	case KindUnit:
		return nil, nil
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindUint:
		return v.Uint, nil
	case KindText:
		return v.Text, nil
	case KindBytes:
		return v.Bytes, nil
	case KindOption:
		if v.Some == nil {
			return nil, nil
		}
		return toNative(*v.Some)
	case KindVec:
		items := make([]interface{}, len(v.Items))
		for i, item := range v.Items {
			n, err := toNative(item)
			if err != nil {
				return nil, err
			}
			items[i] = n
		}
		return items, nil
	case KindMap:
		out := make(map[string]interface{}, len(v.Entries))
		for _, e := range v.Entries {
			k, err := toNative(e.Key)
			if err != nil {
				return nil, err
			}
			keyStr, ok := k.(string)
			if !ok {
				keyStr = fmt.Sprintf("%v", k)
			}
			val, err := toNative(e.Value)
			if err != nil {
				return nil, err
			}
			out[keyStr] = val
		}
		return out, nil
	case KindStruct:
		fields := make([]interface{}, len(v.Fields))
		for i, f := range v.Fields {
			n, err := toNative(f)
			if err != nil {
				return nil, err
			}
			fields[i] = n
		}
		return fields, nil
	case KindEnum:
		fields := make([]interface{}, len(v.Fields))
		for i, f := range v.Fields {
			n, err := toNative(f)
			if err != nil {
				return nil, err
			}
			fields[i] = n
		}
		return map[string]interface{}{"variant": v.Variant, "fields": fields}, nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", v.Kind)
	}
}
