// Package abi implements the package ABI registry the Dispatcher consults
// to resolve an fn-ident to a code-runtime export, validate the
// structural-codec input/output against a declared JSON Schema, and
// extract a method's authorisation list (§4.4, §4.5 "Scrypto(Blueprint)"
// / "Scrypto(Component)").
//
// This package is NOT adapted from opal-lang-opal/core/types - that
// code is a decorator/lexer/JSON-Schema DSL for shell-command argument
// scrubbing, too coupled to the shell domain to generalise (see
// DESIGN.md). Only the pattern survives: a registry behind a mutex,
// built fresh against santhosh-tekuri/jsonschema/v5.
package abi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"

	"github.com/ledgervm/engine/internal/engineerr"
)

// FunctionABI is one exported blueprint function: the fn-ident a caller
// names, the code-runtime export it resolves to, its input/output JSON
// Schemas, and the rule names (resolved by the caller's auth package
// against the component's method_authorization) required to invoke it.
type FunctionABI struct {
	Ident      string
	Export     string
	MethodAuth []string

	inputSchema  *jsonschema.Schema
	outputSchema *jsonschema.Schema
}

// BlueprintABI is one deployed blueprint's exported surface. Version is
// empty for a blueprint installed through Register (a one-shot, never
// upgraded deploy); RegisterVersion populates it for a blueprint that may
// later be upgraded in place.
type BlueprintABI struct {
	Name      string
	Version   string
	Functions map[string]*FunctionABI
}

// Registry holds every blueprint ABI a package deployment has declared.
type Registry struct {
	mu         sync.RWMutex
	blueprints map[string]*BlueprintABI
}

func NewRegistry() *Registry {
	return &Registry{blueprints: make(map[string]*BlueprintABI)}
}

// FunctionSpec is the registration-time description of one function,
// before its schemas are compiled.
type FunctionSpec struct {
	Ident        string
	Export       string
	MethodAuth   []string
	InputSchema  []byte // raw JSON Schema document, or nil to accept anything
	OutputSchema []byte
}

// Register compiles and installs a blueprint's functions. A blueprint may
// only be registered once; re-registering under the same name is a
// deployment bug, not a runtime condition to recover from.
func (r *Registry) Register(blueprint string, specs []FunctionSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blueprints[blueprint]; exists {
		return fmt.Errorf("abi: blueprint %q already registered", blueprint)
	}

	b := &BlueprintABI{Name: blueprint, Functions: make(map[string]*FunctionABI, len(specs))}
	for _, spec := range specs {
		fn := &FunctionABI{Ident: spec.Ident, Export: spec.Export, MethodAuth: spec.MethodAuth}
		var err error
		if fn.inputSchema, err = compile(blueprint + "#" + spec.Ident + "/input", spec.InputSchema); err != nil {
			return fmt.Errorf("abi: %s.%s: input schema: %w", blueprint, spec.Ident, err)
		}
		if fn.outputSchema, err = compile(blueprint+"#"+spec.Ident+"/output", spec.OutputSchema); err != nil {
			return fmt.Errorf("abi: %s.%s: output schema: %w", blueprint, spec.Ident, err)
		}
		b.Functions[spec.Ident] = fn
	}
	r.blueprints[blueprint] = b
	return nil
}

// RegisterVersion installs or upgrades a semver-tagged blueprint. Unlike
// Register, which treats a second call under the same name as a
// deployment bug, RegisterVersion models a package upgrade: a later call
// replaces an earlier one's function set as long as version is valid
// semver and strictly newer than whatever is currently installed. A
// blueprint first installed through Register has no version to upgrade
// from and must be re-deployed under RegisterVersion from the start.
func (r *Registry) RegisterVersion(blueprint, version string, specs []FunctionSpec) error {
	if !semver.IsValid(version) {
		return fmt.Errorf("abi: %q is not a valid semver version", version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.blueprints[blueprint]; ok {
		if existing.Version == "" {
			return fmt.Errorf("abi: blueprint %q was registered unversioned and cannot be upgraded", blueprint)
		}
		if semver.Compare(version, existing.Version) <= 0 {
			return fmt.Errorf("abi: blueprint %q version %s is not newer than installed %s", blueprint, version, existing.Version)
		}
	}

	b := &BlueprintABI{Name: blueprint, Version: version, Functions: make(map[string]*FunctionABI, len(specs))}
	for _, spec := range specs {
		fn := &FunctionABI{Ident: spec.Ident, Export: spec.Export, MethodAuth: spec.MethodAuth}
		var err error
		if fn.inputSchema, err = compile(blueprint+"@"+version+"#"+spec.Ident+"/input", spec.InputSchema); err != nil {
			return fmt.Errorf("abi: %s@%s.%s: input schema: %w", blueprint, version, spec.Ident, err)
		}
		if fn.outputSchema, err = compile(blueprint+"@"+version+"#"+spec.Ident+"/output", spec.OutputSchema); err != nil {
			return fmt.Errorf("abi: %s@%s.%s: output schema: %w", blueprint, version, spec.Ident, err)
		}
		b.Functions[spec.Ident] = fn
	}
	r.blueprints[blueprint] = b
	return nil
}

func compile(url string, raw []byte) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// Lookup returns a function's ABI, or a MethodDoesNotExistError carrying
// a fuzzy-matched suggestion if the fn-ident is close to a declared one.
func (r *Registry) Lookup(blueprint, fnIdent string) (*FunctionABI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blueprints[blueprint]
	if !ok {
		return nil, &engineerr.PackageNotFoundError{Address: blueprint}
	}
	if fn, ok := b.Functions[fnIdent]; ok {
		return fn, nil
	}

	candidates := make([]string, 0, len(b.Functions))
	for ident := range b.Functions {
		candidates = append(candidates, ident)
	}
	suggestion := ""
	if ranks := fuzzy.RankFind(fnIdent, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		suggestion = ranks[0].Target
	}
	return nil, &engineerr.MethodDoesNotExistError{FnIdent: fnIdent, Suggestion: suggestion}
}

// ResolveExport is the §4.5 "asks the ABI for the export name matching
// fn-ident" step.
func (r *Registry) ResolveExport(blueprint, fnIdent string) (string, error) {
	fn, err := r.Lookup(blueprint, fnIdent)
	if err != nil {
		return "", err
	}
	return fn.Export, nil
}

// MethodAuthorization returns the rule names a method's caller must
// satisfy, consulted by the Dispatcher's Scrypto(Component) resolution.
func (r *Registry) MethodAuthorization(blueprint, fnIdent string) ([]string, error) {
	fn, err := r.Lookup(blueprint, fnIdent)
	if err != nil {
		return nil, err
	}
	return fn.MethodAuth, nil
}

// ValidateInput checks an encoded call argument against the function's
// declared input schema.
func (r *Registry) ValidateInput(blueprint, fnIdent string, input []byte) error {
	fn, err := r.Lookup(blueprint, fnIdent)
	if err != nil {
		return err
	}
	if err := validate(fn.inputSchema, input); err != nil {
		return &engineerr.InvalidFnInputError{FnIdent: fnIdent, Reason: err.Error()}
	}
	return nil
}

// ValidateOutput checks an encoded return value against the function's
// declared output schema.
func (r *Registry) ValidateOutput(blueprint, fnIdent string, output []byte) error {
	fn, err := r.Lookup(blueprint, fnIdent)
	if err != nil {
		return err
	}
	if err := validate(fn.outputSchema, output); err != nil {
		return &engineerr.InvalidFnOutputError{FnIdent: fnIdent, Reason: err.Error()}
	}
	return nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	if schema == nil {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}
