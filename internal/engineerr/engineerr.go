// Package engineerr declares the closed set of error kinds the engine can
// surface, one exported struct per kind, each implementing error with a
// formatted Error() message - the same shape as the teacher pattern of a
// structured, field-carrying error type rather than a bare string.
// invoke_snode and run report the failures listed here as these types;
// other failures (a malformed call, a non-empty worktop on return) come
// back as plain wrapped errors. A frame never attempts recovery.
package engineerr

import (
	"fmt"

	"github.com/ledgervm/engine/internal/ids"
)

// ValueNotFoundError reports that an invocation's input named a value
// this frame cannot find owned, visible, or in Track.
type ValueNotFoundError struct{ ID ids.ValueId }

func (e *ValueNotFoundError) Error() string {
	return fmt.Sprintf("value not found: %s", e.ID)
}

// InvalidDataAccessError reports a read through a visibility entry that
// is missing or marked hidden (visible=false).
type InvalidDataAccessError struct{ ID ids.ValueId }

func (e *InvalidDataAccessError) Error() string {
	return fmt.Sprintf("invalid data access: %s is not visible to this frame", e.ID)
}

// InvalidDataWriteError reports a write to a substate address that may
// never be written directly (e.g. a Component's Info offset).
type InvalidDataWriteError struct{ Reason string }

func (e *InvalidDataWriteError) Error() string {
	return fmt.Sprintf("invalid data write: %s", e.Reason)
}

// ValueNotAllowedError reports a value of a kind that may not cross the
// boundary it was sent across (persistence boundary, or argument/return
// position it is forbidden in).
type ValueNotAllowedError struct {
	ID       ids.ValueId
	Boundary string
}

func (e *ValueNotAllowedError) Error() string {
	return fmt.Sprintf("value not allowed across %s: %s", e.Boundary, e.ID)
}

// BucketNotAllowedError, ProofNotAllowedError, VaultNotAllowedError, and
// KVStoreNotAllowedError are the surface-specific forms of "a value of
// this kind was sent somewhere only persistable kinds may go".
type BucketNotAllowedError struct{ Surface string }

func (e *BucketNotAllowedError) Error() string {
	return fmt.Sprintf("bucket not allowed: %s", e.Surface)
}

type ProofNotAllowedError struct{ Surface string }

func (e *ProofNotAllowedError) Error() string {
	return fmt.Sprintf("proof not allowed: %s", e.Surface)
}

type VaultNotAllowedError struct{ Surface string }

func (e *VaultNotAllowedError) Error() string {
	return fmt.Sprintf("vault not allowed: %s", e.Surface)
}

type KVStoreNotAllowedError struct{ Surface string }

func (e *KVStoreNotAllowedError) Error() string {
	return fmt.Sprintf("key-value store not allowed: %s", e.Surface)
}

// CantMoveLockedBucketError reports an attempt to move a bucket that
// currently has outstanding proofs locking it in place.
type CantMoveLockedBucketError struct{ ID ids.ValueId }

func (e *CantMoveLockedBucketError) Error() string {
	return fmt.Sprintf("cannot move locked bucket: %s", e.ID)
}

// CantMoveRestrictedProofError reports an attempt to move a proof that
// was already restricted by a prior call-boundary crossing.
type CantMoveRestrictedProofError struct{ ID ids.ValueId }

func (e *CantMoveRestrictedProofError) Error() string {
	return fmt.Sprintf("cannot move restricted proof: %s", e.ID)
}

// DropFailureError reports that an owned value of a kind requiring
// explicit disposition was neither globalised nor transferred out of its
// frame by end-of-frame.
type DropFailureError struct{ ID ids.ValueId }

func (e *DropFailureError) Error() string {
	return fmt.Sprintf("drop failure: %s was neither globalised nor returned", e.ID)
}

// AuthorisationFailureError reports that an access rule required by the
// dispatcher did not check out against the available proof stack.
type AuthorisationFailureError struct {
	Rule  string
	Cause string
}

func (e *AuthorisationFailureError) Error() string {
	return fmt.Sprintf("authorisation failure: rule %q: %s", e.Rule, e.Cause)
}

// ResourceManagerNotFoundError, PackageNotFoundError, and
// ComponentNotFoundError report that a target address did not resolve to
// a live substate, neither locally nor in Track.
type ResourceManagerNotFoundError struct{ Address string }

func (e *ResourceManagerNotFoundError) Error() string {
	return fmt.Sprintf("resource manager not found: %s", e.Address)
}

type PackageNotFoundError struct{ Address string }

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package not found: %s", e.Address)
}

type ComponentNotFoundError struct{ Address string }

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component not found: %s", e.Address)
}

// ComponentReentrancyError and PackageReentrancyError report that the
// dispatcher tried to take a mutable lock on an address already locked
// somewhere up the call stack.
type ComponentReentrancyError struct{ Address string }

func (e *ComponentReentrancyError) Error() string {
	return fmt.Sprintf("component reentrancy: %s is already locked on this stack", e.Address)
}

type PackageReentrancyError struct{ Address string }

func (e *PackageReentrancyError) Error() string {
	return fmt.Sprintf("package reentrancy: %s is already locked on this stack", e.Address)
}

// MethodDoesNotExistError reports an fn-ident that did not match any
// export of the target blueprint. Suggestion, when non-empty, is the
// closest declared method name by fuzzy match.
type MethodDoesNotExistError struct {
	FnIdent    string
	Suggestion string
}

func (e *MethodDoesNotExistError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("method does not exist: %q (did you mean %q?)", e.FnIdent, e.Suggestion)
	}
	return fmt.Sprintf("method does not exist: %q", e.FnIdent)
}

// InvalidFnInputError and InvalidFnOutputError report an ABI schema
// mismatch on a scrypto invocation's argument or return value.
type InvalidFnInputError struct {
	FnIdent string
	Reason  string
}

func (e *InvalidFnInputError) Error() string {
	return fmt.Sprintf("invalid input for %q: %s", e.FnIdent, e.Reason)
}

type InvalidFnOutputError struct {
	FnIdent string
	Reason  string
}

func (e *InvalidFnOutputError) Error() string {
	return fmt.Sprintf("invalid output for %q: %s", e.FnIdent, e.Reason)
}

// CostingError reports that a frame's cost counter was exhausted.
type CostingError struct {
	Charged  uint64
	Limit    uint64
	Activity string
}

func (e *CostingError) Error() string {
	return fmt.Sprintf("costing error: %s would charge %d, limit %d", e.Activity, e.Charged, e.Limit)
}

// StoredValueRemovedError reports that a child value present at frame
// entry has since been silently taken out from under a live reference.
type StoredValueRemovedError struct{ ID ids.ValueId }

func (e *StoredValueRemovedError) Error() string {
	return fmt.Sprintf("stored value removed: %s", e.ID)
}

// InvokeError wraps an error returned by the code runtime collaborator
// while running scripted blueprint code.
type InvokeError struct{ Cause error }

func (e *InvokeError) Error() string {
	return fmt.Sprintf("invoke error: %v", e.Cause)
}

func (e *InvokeError) Unwrap() error { return e.Cause }
