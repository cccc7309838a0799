// Package callframe implements §4 of the engine's core: the CallFrame
// stack, its SystemApi surface, and the Dispatcher that resolves a
// (target, fn-ident) pair into a concrete execution and the locks and
// authorisation rules that execution requires (§4.4, §4.5). This is the
// ~45% of the implementation budget §2 calls the dispatch-and-value-
// movement core.
package callframe

import (
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/ids"
)

// StaticModule names one of the four built-in collaborators that are
// never owned values themselves (§4.5 "Static(Package|Resource|System|
// TransactionProcessor)").
type StaticModule string

const (
	StaticPackage            StaticModule = "package"
	StaticResource           StaticModule = "resource"
	StaticSystem             StaticModule = "system"
	StaticTransactionProcessor StaticModule = "transaction_processor"
)

// Target is the sum type invoke_snode dispatches on (§4.5): every shape a
// caller can name as the destination of a call.
type Target interface{ isTarget() }

// Static addresses one of the built-in collaborator modules directly, by
// name rather than by value id.
type Static struct{ Module StaticModule }

func (Static) isTarget() {}

// Consumed addresses a value this call is taking ownership of - it must
// be present in the invocation's moved list.
type Consumed struct{ ID ids.ValueId }

func (Consumed) isTarget() {}

// AuthZoneRef addresses the calling frame's own auth-zone (push, proofs,
// and clear).
type AuthZoneRef struct{}

func (AuthZoneRef) isTarget() {}

// WorktopRef addresses the transaction's worktop.
type WorktopRef struct{}

func (WorktopRef) isTarget() {}

// ResourceRef addresses a deployed resource's manager by its global
// address, for manager-level operations (mint, metadata read).
type ResourceRef struct{ Address addr.Address }

func (ResourceRef) isTarget() {}

// BucketRef addresses a bucket this frame still owns or has borrowed,
// without consuming it.
type BucketRef struct{ ID ids.ValueId }

func (BucketRef) isTarget() {}

// ProofRef addresses a proof this frame still owns or has borrowed.
type ProofRef struct{ ID ids.ValueId }

func (ProofRef) isTarget() {}

// VaultRef addresses a vault that is still an in-memory owned or borrowed
// value (not yet globalised into Track). Rare in practice - most vaults
// are reached through TrackedVaultRef once their owning component has
// been globalised.
type VaultRef struct{ ID ids.ValueId }

func (VaultRef) isTarget() {}

// TrackedVaultRef addresses a vault already persisted as a Track
// substate, reached by its durable address.
type TrackedVaultRef struct{ Address addr.Address }

func (TrackedVaultRef) isTarget() {}

// ScryptoBlueprint addresses a package-level function: no component
// instance, no method authorisation to consult (§4.5's convention that
// function-level calls are not instance-scoped).
type ScryptoBlueprint struct {
	Package   addr.Address
	Blueprint string
}

func (ScryptoBlueprint) isTarget() {}

// ScryptoComponent addresses an instance method on a globalised component.
type ScryptoComponent struct{ ID ids.ComponentId }

func (ScryptoComponent) isTarget() {}
