package modules

import "github.com/ledgervm/engine/internal/codec"
import "github.com/ledgervm/engine/internal/ids"

// Instruction is one manifest step: a dispatch target (opaque here - it is
// a callframe.Target, which this package cannot import without a cycle,
// since callframe imports modules for Worktop/dispatch helpers), the
// fn-ident to call, its input, and any value ids moved along with it.
type Instruction struct {
	Target  interface{}
	FnIdent string
	Input   codec.Value
	Moved   []ids.ValueId
}

// InvokeFunc is the shape of CallFrame.InvokeSNode, supplied by the caller
// so this package never needs to know about CallFrame itself.
type InvokeFunc func(target interface{}, fnIdent string, input codec.Value, moved []ids.ValueId) (codec.Value, []ids.ValueId, error)

// RunManifest is the Static(TransactionProcessor).run entry point (§4.5):
// it executes every instruction in order through invoke, stopping at the
// first failure. An empty manifest is a valid, trivially successful
// transaction.
func RunManifest(instructions []Instruction, invoke InvokeFunc) ([]codec.Value, error) {
	outputs := make([]codec.Value, 0, len(instructions))
	for _, instr := range instructions {
		out, _, err := invoke(instr.Target, instr.FnIdent, instr.Input, instr.Moved)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
