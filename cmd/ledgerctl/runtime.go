package main

import (
	"fmt"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/codert"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// newDemoRuntime builds the code-runtime ledgerctl runs deployed packages
// through. There is no bytecode format in this build (see
// internal/codert's own package doc) - a package's "code" is the name of
// a closure registered ahead of time, so ledgerctl ships a small fixed
// set of demo blueprints a manifest's publish_package op can reference by
// name instead of requiring a real compiler.
func newDemoRuntime() *codert.ClosureRuntime {
	rt := codert.NewClosureRuntime()

	rt.Register("echo_code", func(export string, arg codec.Value, api codert.SystemApi) (codec.Value, error) {
		return arg, nil
	})

	rt.Register("counter_code", func(export string, arg codec.Value, api codert.SystemApi) (codec.Value, error) {
		switch export {
		case "instantiate":
			pkg, err := addr.Decode(arg.Bytes)
			if err != nil {
				return codec.Value{}, fmt.Errorf("counter_code: decode package address: %w", err)
			}
			compID, err := api.CreateValue(&valuegraph.Component{
				PackageAddress: pkg,
				Blueprint:      "Counter",
				State:          codec.StructOf(codec.Uint64(0)),
			})
			if err != nil {
				return codec.Value{}, err
			}
			address, err := api.GlobalizeValue(compID)
			if err != nil {
				return codec.Value{}, err
			}
			return codec.RawBytes(address.Key()), nil

		case "increment":
			self, err := addr.Decode(arg.Bytes)
			if err != nil {
				return codec.Value{}, fmt.Errorf("counter_code: decode self address: %w", err)
			}
			cid := ids.ComponentId{Address: self}
			offset := codert.ComponentOffset{Component: cid, Offset: "state"}
			state, err := api.ReadValueData(offset)
			if err != nil {
				return codec.Value{}, err
			}
			next := state.Fields[0].Uint + 1
			if err := api.WriteValueData(offset, codec.StructOf(codec.Uint64(next))); err != nil {
				return codec.Value{}, err
			}
			return codec.Uint64(next), nil

		default:
			return codec.Value{}, fmt.Errorf("counter_code: unknown export %q", export)
		}
	})

	return rt
}
