package main

import (
	"encoding/hex"
	"fmt"

	"github.com/ledgervm/engine/internal/codec"
)

// describeValue renders a manifest instruction's returned codec.Value for
// terminal output - a freshly minted address (always returned as raw
// bytes) prints as hex so it can be pasted into a later manifest's
// *_hex field.
func describeValue(v codec.Value) string {
	switch v.Kind {
	case codec.KindUnit:
		return "()"
	case codec.KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case codec.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case codec.KindUint:
		return fmt.Sprintf("%d", v.Uint)
	case codec.KindText:
		return fmt.Sprintf("%q", v.Text)
	case codec.KindBytes:
		return hex.EncodeToString(v.Bytes)
	case codec.KindOption:
		if v.IsNone() {
			return "none"
		}
		return "some(" + describeValue(*v.Some) + ")"
	case codec.KindVec:
		out := "["
		for i, item := range v.Items {
			if i > 0 {
				out += ", "
			}
			out += describeValue(item)
		}
		return out + "]"
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}
