package callframe

import (
	"fmt"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/track"
)

// resolve implements the Dispatcher's target resolution (§4.5): it turns
// a Target plus fn-ident into a concrete SNodeExecution, the authorisation
// rules that execution requires, and the Track locks it acquired along the
// way. Every acquired lock is returned so invoke_snode can guarantee its
// release exactly once, on every return path including error.
func (f *CallFrame) resolve(target Target, fnIdent string, input codec.Value, moved map[string]movedEntry) (SNodeExecution, []auth.Rule, []addr.Address, error) {
	switch t := target.(type) {

	case Static:
		return StaticExecution{Module: t.Module}, nil, nil, nil

	case Consumed:
		entry, ok := moved[t.ID.String()]
		if !ok {
			return nil, nil, nil, &engineerr.ValueNotFoundError{ID: t.ID}
		}
		return ConsumedExecution{ID: t.ID, Value: entry.cell.Value}, nil, nil, nil

	case AuthZoneRef:
		return AuthZoneExecution{}, nil, nil, nil

	case WorktopRef:
		return WorktopExecution{}, nil, nil, nil

	case ResourceRef:
		rm, err := f.Resources.Get(t.Address)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := f.Track.TakeLock(t.Address, false); err != nil {
			return nil, nil, nil, err
		}
		rule := modules.ResourceManagerAuth(rm, fnIdent)
		return ResourceManagerExecution{Address: t.Address}, []auth.Rule{rule}, []addr.Address{t.Address}, nil

	case BucketRef:
		if _, ok := f.cellFor(t.ID); !ok {
			return nil, nil, nil, &engineerr.ValueNotFoundError{ID: t.ID}
		}
		return ValueRefExecution{ID: t.ID}, nil, nil, nil

	case ProofRef:
		if _, ok := f.cellFor(t.ID); !ok {
			return nil, nil, nil, &engineerr.ValueNotFoundError{ID: t.ID}
		}
		return ValueRefExecution{ID: t.ID}, nil, nil, nil

	case VaultRef:
		if _, ok := f.cellFor(t.ID); !ok {
			return nil, nil, nil, &engineerr.ValueNotFoundError{ID: t.ID}
		}
		return ValueRefExecution{ID: t.ID}, nil, nil, nil

	case TrackedVaultRef:
		if err := f.Track.TakeLock(t.Address, true); err != nil {
			return nil, nil, nil, err
		}
		acquired := []addr.Address{t.Address}
		sv, err := f.Track.ReadValue(t.Address)
		if err != nil {
			return nil, nil, acquired, err
		}
		vault, ok := sv.(track.VaultSubstate)
		if !ok {
			return nil, nil, acquired, fmt.Errorf("callframe: substate at %s is not a vault", t.Address)
		}
		rule := auth.Rule(auth.AllowAll{})
		if rm, err := f.Resources.Get(vault.Resource); err == nil && rm.VaultAuth != nil {
			rule = rm.VaultAuth
		}
		return TrackedVaultExecution{Address: t.Address}, []auth.Rule{rule}, acquired, nil

	case ScryptoBlueprint:
		if err := f.Track.TakeLock(t.Package, false); err != nil {
			return nil, nil, nil, err
		}
		acquired := []addr.Address{t.Package}
		sv, err := f.Track.ReadValue(t.Package)
		if err != nil {
			return nil, nil, acquired, err
		}
		pkg, ok := sv.(track.PackageSubstate)
		if !ok {
			return nil, nil, acquired, fmt.Errorf("callframe: substate at %s is not a package", t.Package)
		}
		return ScryptoExecution{Package: t.Package, Blueprint: t.Blueprint, Code: pkg.Code}, nil, acquired, nil

	case ScryptoComponent:
		if err := f.Track.TakeLock(t.ID.Address, true); err != nil {
			return nil, nil, nil, err
		}
		acquired := []addr.Address{t.ID.Address}
		sv, err := f.Track.ReadValue(t.ID.Address)
		if err != nil {
			return nil, nil, acquired, err
		}
		comp, ok := sv.(track.ComponentSubstate)
		if !ok {
			return nil, nil, acquired, fmt.Errorf("callframe: substate at %s is not a component", t.ID.Address)
		}

		if err := f.Track.TakeLock(comp.PackageAddress, false); err != nil {
			return nil, nil, acquired, err
		}
		acquired = append(acquired, comp.PackageAddress)
		psv, err := f.Track.ReadValue(comp.PackageAddress)
		if err != nil {
			return nil, nil, acquired, err
		}
		pkg, ok := psv.(track.PackageSubstate)
		if !ok {
			return nil, nil, acquired, fmt.Errorf("callframe: substate at %s is not a package", comp.PackageAddress)
		}

		methodAuthNames, err := f.ABI.MethodAuthorization(comp.Blueprint, fnIdent)
		if err != nil {
			return nil, nil, acquired, err
		}
		id := t.ID
		return ScryptoExecution{
			Package:   comp.PackageAddress,
			Blueprint: comp.Blueprint,
			Component: &id,
			Code:      pkg.Code,
		}, namedRules(methodAuthNames), acquired, nil

	default:
		return nil, nil, nil, fmt.Errorf("callframe: unknown target %T", target)
	}
}

// namedRules resolves a component's declared method_authorization names
// (§4.4) into executable Rule instances. This reference build recognises
// only the two universal names; any other name fails closed rather than
// silently granting access, since the full named-rule registry (badges
// keyed by resource, mapped at deployment time) is out of scope here.
func namedRules(names []string) []auth.Rule {
	rules := make([]auth.Rule, 0, len(names))
	for _, name := range names {
		switch name {
		case "", "allow_all":
			rules = append(rules, auth.AllowAll{})
		default:
			rules = append(rules, auth.DenyAll{})
		}
	}
	return rules
}
