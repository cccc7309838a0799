// Package auth implements the authorisation weave CallFrame.invoke_snode
// step 5 consults (§4.4): an AccessRule tree evaluated against the proof
// stacks of one or more AuthZones, plus the AuthZone itself (the stack of
// proofs a frame carries, per §4.4/§4.5's "this frame's auth-zone" and
// "caller's auth-zone").
package auth

import (
	"golang.org/x/crypto/blake2b"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// Rule is the sum type an access rule tree is built from. Resolution
// consults only the proof stacks supplied to Check - it never reaches
// into Track itself.
type Rule interface {
	isRule()
	check(zones []*AuthZone) bool
}

// AllowAll always checks out; used for methods with no authorisation
// requirement.
type AllowAll struct{}

func (AllowAll) isRule()                     {}
func (AllowAll) check(zones []*AuthZone) bool { return true }

// DenyAll never checks out; used for methods that may never be called
// directly (e.g. an internal-only export).
type DenyAll struct{}

func (DenyAll) isRule()                      {}
func (DenyAll) check(zones []*AuthZone) bool { return false }

// RequireProof passes if any supplied zone holds a proof of Resource.
type RequireProof struct{ Resource addr.Address }

func (RequireProof) isRule() {}
func (r RequireProof) check(zones []*AuthZone) bool {
	for _, z := range zones {
		if _, ok := z.find(r.Resource); ok {
			return true
		}
	}
	return false
}

// RequireAmount passes if any supplied zone holds a proof of Resource with
// at least Amount.
type RequireAmount struct {
	Resource addr.Address
	Amount   uint64
}

func (RequireAmount) isRule() {}
func (r RequireAmount) check(zones []*AuthZone) bool {
	for _, z := range zones {
		for _, p := range z.proofs {
			if p.Resource.Equal(r.Resource) && p.Amount >= r.Amount {
				return true
			}
		}
	}
	return false
}

// AnyOf passes if at least one child rule passes.
type AnyOf struct{ Rules []Rule }

func (AnyOf) isRule() {}
func (a AnyOf) check(zones []*AuthZone) bool {
	for _, r := range a.Rules {
		if r.check(zones) {
			return true
		}
	}
	return false
}

// AllOf passes only if every child rule passes.
type AllOf struct{ Rules []Rule }

func (AllOf) isRule() {}
func (a AllOf) check(zones []*AuthZone) bool {
	for _, r := range a.Rules {
		if !r.check(zones) {
			return false
		}
	}
	return true
}

// AuthZone is the stack of proofs a frame carries (§4.4: "seeds an
// auth-zone proof derived from the signer public keys"). Proofs are
// pushed by CallFrame as it seeds the root frame or as methods produce
// them; Clear is the best-effort drop run() performs on return.
type AuthZone struct {
	proofs []valuegraph.Proof
}

func NewAuthZone() *AuthZone { return &AuthZone{} }

// Push adds a proof to the zone.
func (z *AuthZone) Push(p valuegraph.Proof) { z.proofs = append(z.proofs, p) }

// Proofs returns the zone's current proof stack.
func (z *AuthZone) Proofs() []valuegraph.Proof {
	out := make([]valuegraph.Proof, len(z.proofs))
	copy(out, z.proofs)
	return out
}

// Clear drops every proof in the zone and returns what was dropped, for
// run()'s best-effort auth-zone clear on frame exit.
func (z *AuthZone) Clear() []valuegraph.Proof {
	dropped := z.proofs
	z.proofs = nil
	return dropped
}

func (z *AuthZone) find(resource addr.Address) (valuegraph.Proof, bool) {
	for _, p := range z.proofs {
		if p.Resource.Equal(resource) {
			return p, true
		}
	}
	return valuegraph.Proof{}, false
}

// Check requires every rule in rules to pass against the combined proof
// stacks of zones, per §4.4 step 5 ("require every listed authorisation
// to check against that stack"). The first failing rule is reported;
// rules are otherwise unordered.
func Check(rules []Rule, zones ...*AuthZone) error {
	for _, r := range rules {
		if !r.check(zones) {
			return &engineerr.AuthorisationFailureError{
				Rule:  ruleName(r),
				Cause: "no supplied auth-zone satisfies this rule",
			}
		}
	}
	return nil
}

func ruleName(r Rule) string {
	switch r.(type) {
	case AllowAll:
		return "AllowAll"
	case DenyAll:
		return "DenyAll"
	case RequireProof:
		return "RequireProof"
	case RequireAmount:
		return "RequireAmount"
	case AnyOf:
		return "AnyOf"
	case AllOf:
		return "AllOf"
	default:
		return "Rule"
	}
}

// SignerResource derives the resource address representing one signer's
// authenticated identity from their public key, per §4.4's "a
// non-fungible resource representing authenticated identities": each
// distinct key yields its own resource address, so a rule scoped to one
// signer's key never checks out against another signer's proof.
func SignerResource(publicKey []byte) addr.Address {
	sum := blake2b.Sum256(publicKey)
	var h addr.Hash
	copy(h[:], sum[:len(h)])
	return addr.NewResource(h)
}
