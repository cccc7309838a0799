// Package modules implements the collaborator modules §4 lists as the
// dispatch targets Static/Consumed/ValueRef invocations land in: Bucket,
// Proof, Vault, Worktop, AuthZone, ResourceManager, Component, Package,
// KeyValueStore, TransactionProcessor, and System. Each file is a small,
// focused set of functions operating on the valuegraph.REValue variants;
// none of them reach into Track directly - CallFrame's Dispatcher owns
// every lock and visibility decision, and calls into these functions with
// already-resolved values.
package modules

import (
	"fmt"

	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// BucketTake splits amount out of a bucket, returning the taken bucket and
// the (possibly zero) remainder. A locked bucket cannot be split further
// while a proof references it (invariant 4).
func BucketTake(b valuegraph.Bucket, amount uint64) (taken valuegraph.Bucket, remainder valuegraph.Bucket, err error) {
	if b.Locked {
		return valuegraph.Bucket{}, b, &engineerr.CantMoveLockedBucketError{ID: ids.BucketId{}}
	}
	if amount > b.Amount {
		return valuegraph.Bucket{}, b, fmt.Errorf("modules: cannot take %d from bucket holding %d", amount, b.Amount)
	}
	taken = valuegraph.Bucket{Resource: b.Resource, Amount: amount}
	remainder = valuegraph.Bucket{Resource: b.Resource, Amount: b.Amount - amount}
	return taken, remainder, nil
}

// BucketPut merges two buckets of the same resource. A locked result
// propagates if either input was locked.
func BucketPut(a, b valuegraph.Bucket) (valuegraph.Bucket, error) {
	if !a.Resource.Equal(b.Resource) {
		return valuegraph.Bucket{}, fmt.Errorf("modules: cannot combine buckets of different resources")
	}
	return valuegraph.Bucket{Resource: a.Resource, Amount: a.Amount + b.Amount, Locked: a.Locked || b.Locked}, nil
}

// BucketAmount reads a bucket's held amount.
func BucketAmount(b valuegraph.Bucket) uint64 { return b.Amount }

// BucketCreateProof derives a proof witnessing the bucket's resource and
// amount, and locks the bucket so it cannot move while the proof is live.
func BucketCreateProof(b valuegraph.Bucket) (valuegraph.Bucket, valuegraph.Proof) {
	locked := valuegraph.Bucket{Resource: b.Resource, Amount: b.Amount, Locked: true}
	proof := valuegraph.Proof{Resource: b.Resource, Amount: b.Amount}
	return locked, proof
}
