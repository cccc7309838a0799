package callframe

import (
	"fmt"

	"github.com/ledgervm/engine/internal/ids"
)

// FinalizeRoot closes out a transaction's root frame the same way a
// Scrypto call boundary closes out a child frame (§4.4 steps 6-8): every
// bucket or proof still owned once the manifest has finished running is
// handed back to the caller rather than silently discarded, and a
// non-empty worktop or an un-dropped Vault/Component/KeyValueStore left
// owned at the root is rejected rather than committed.
func (f *CallFrame) FinalizeRoot() ([]ids.ValueId, error) {
	leftover, err := f.sweepOwned()
	if err != nil {
		return nil, err
	}
	if !f.Worktop.Empty() {
		return nil, fmt.Errorf("callframe: transaction ended with a non-empty worktop")
	}
	out := make([]ids.ValueId, 0, len(leftover))
	for _, entry := range leftover {
		out = append(out, entry.id)
	}
	return out, nil
}
