package callframe

import (
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// SNodeExecution is what the Dispatcher resolves a Target into: the
// concrete operation run() performs, already carrying everything it needs
// (no further Track lookups except what run() itself does against an
// address it was handed).
type SNodeExecution interface{ isSNode() }

// StaticExecution runs one of the built-in collaborator modules.
type StaticExecution struct{ Module StaticModule }

func (StaticExecution) isSNode() {}

// ConsumedExecution operates on a value this call took ownership of.
type ConsumedExecution struct {
	ID    ids.ValueId
	Value valuegraph.REValue
}

func (ConsumedExecution) isSNode() {}

// AuthZoneExecution operates on the calling frame's auth-zone.
type AuthZoneExecution struct{}

func (AuthZoneExecution) isSNode() {}

// WorktopExecution operates on the transaction's worktop.
type WorktopExecution struct{}

func (WorktopExecution) isSNode() {}

// ValueRefExecution operates on an owned or borrowed in-memory value by
// id, without consuming it.
type ValueRefExecution struct{ ID ids.ValueId }

func (ValueRefExecution) isSNode() {}

// ResourceManagerExecution operates on a deployed resource's registry
// entry and its persisted metadata substate.
type ResourceManagerExecution struct{ Address addr.Address }

func (ResourceManagerExecution) isSNode() {}

// TrackedVaultExecution operates on a vault substate already persisted in
// Track, under a lock the Dispatcher has already acquired.
type TrackedVaultExecution struct{ Address addr.Address }

func (TrackedVaultExecution) isSNode() {}

// ScryptoExecution runs scripted blueprint code through the codert
// collaborator. Component is nil for a function-level (blueprint) call.
type ScryptoExecution struct {
	Package   addr.Address
	Blueprint string
	Component *ids.ComponentId
	Code      []byte
}

func (ScryptoExecution) isSNode() {}
