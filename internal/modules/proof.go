package modules

import "github.com/ledgervm/engine/internal/valuegraph"

// ProofRestrict marks a proof restricted the moment it is observed on the
// receiving side of a call boundary (invariant 4): once restricted, it can
// never re-enter a frame undemoted, so CallFrame calls this exactly once
// per moved proof id, at the point invoke_snode hands the moved value to
// the callee.
func ProofRestrict(p valuegraph.Proof) valuegraph.Proof {
	p.Restricted = true
	return p
}

// ProofAmount reads the amount a proof witnesses.
func ProofAmount(p valuegraph.Proof) uint64 { return p.Amount }

// ProofClone duplicates a proof (a proof, unlike a bucket, may be
// freely copied - it is a witness, not a resource holding). The clone
// inherits the original's restriction state.
func ProofClone(p valuegraph.Proof) valuegraph.Proof { return p }
