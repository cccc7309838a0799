// Package codert declares the code-runtime collaborator contract CallFrame
// uses to run scrypto blueprint code (§1, §4.4): Instrument turns deployed
// package bytes into a runnable Instance, and Instance.Invoke runs one
// exported function against a SystemApi adapter the frame supplies.
//
// There is no bytecode VM in this module - the teacher repo's own
// execution core (opal-lang-opal/runtime/execution, deleted - see
// DESIGN.md) was a shell-pipeline interpreter with no analogue here, so
// the reference implementation below (ClosureRuntime) is written fresh:
// a package's "code" is the name of a Go closure registered ahead of
// time, which is the same shape a unit test or the CLI's demo blueprints
// need without requiring an actual bytecode format.
package codert

import (
	"fmt"
	"sync"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// SubstateAddress is the sum type read_value_data/write_value_data/
// remove_value_data operate over (§4.4).
type SubstateAddress interface{ isSubstateAddress() }

// ComponentOffset addresses a component's state blob. ReadValueData and
// WriteValueData read or replace the whole blob whatever Offset holds, and
// only for a component visible to the calling frame; no offset bypasses
// that visibility check.
type ComponentOffset struct {
	Component ids.ComponentId
	Offset    string
}

func (ComponentOffset) isSubstateAddress() {}

// KeyValueEntry addresses one entry of a key-value store.
type KeyValueEntry struct {
	Store ids.KeyValueStoreId
	Key   []byte
}

func (KeyValueEntry) isSubstateAddress() {}

// NonFungibleEntry addresses one unit of a resource's non-fungible space.
type NonFungibleEntry struct {
	Resource addr.Address
	UnitID   []byte
}

func (NonFungibleEntry) isSubstateAddress() {}

// SystemApi is the frame-scoped surface scripted blueprint code runs
// against (§4.4). CallFrame implements this directly; codert never
// constructs one, only calls through it.
type SystemApi interface {
	CreateValue(value valuegraph.REValue) (ids.ValueId, error)
	DropValue(id ids.ValueId) error
	GlobalizeValue(id ids.ValueId) (addr.Address, error)
	BorrowValue(id ids.ValueId) (valuegraph.REValue, error)
	BorrowValueMut(id ids.ValueId) (valuegraph.REValue, error)
	ReturnValueMut(id ids.ValueId, value valuegraph.REValue) error
	ReadValueData(address SubstateAddress) (codec.Value, error)
	WriteValueData(address SubstateAddress, value codec.Value) error
	RemoveValueData(address SubstateAddress) (codec.Value, error)
	// Invoke lets scripted code make a further cross-frame call (e.g. a
	// component method calling into a vault it owns) without codert
	// needing to know about CallFrame's Target/SNodeExecution types.
	Invoke(targetDescription string, fnIdent string, input codec.Value) (codec.Value, error)
}

// Instance is one instantiated, runnable blueprint.
type Instance interface {
	Invoke(export string, arg codec.Value, api SystemApi) (codec.Value, error)
}

// Instrument turns deployed package code into a runnable Instance.
type Instrument interface {
	Instrument(code []byte) (Instance, error)
}

// BlueprintFunc is one registered blueprint export.
type BlueprintFunc func(export string, arg codec.Value, api SystemApi) (codec.Value, error)

// ClosureRuntime is the reference Instrument: package code is the UTF-8
// name of a previously-registered closure. It exists for tests and the
// CLI's demonstration blueprints, mirroring the pluggable-backend shape
// internal/substatestore uses for the same reason.
type ClosureRuntime struct {
	mu         sync.RWMutex
	blueprints map[string]BlueprintFunc
}

func NewClosureRuntime() *ClosureRuntime {
	return &ClosureRuntime{blueprints: make(map[string]BlueprintFunc)}
}

// Register installs a closure under a name, later referenced as a
// package's code bytes.
func (r *ClosureRuntime) Register(name string, fn BlueprintFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blueprints[name] = fn
}

// Instrument resolves code (the registered name) to a runnable instance.
func (r *ClosureRuntime) Instrument(code []byte) (Instance, error) {
	name := string(code)
	r.mu.RLock()
	fn, ok := r.blueprints[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("codert: no blueprint registered under %q", name)
	}
	return closureInstance{fn: fn}, nil
}

type closureInstance struct{ fn BlueprintFunc }

func (c closureInstance) Invoke(export string, arg codec.Value, api SystemApi) (codec.Value, error) {
	return c.fn(export, arg, api)
}
