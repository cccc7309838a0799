package modules

import (
	"sync"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// Worktop is the transaction-scoped holding area instructions put withdrawn
// buckets onto and take them back from by resource, the direct analogue of
// a manifest's implicit worktop in a resource-oriented ledger. It is
// created fresh for each TransactionProcessor frame (§4.5 Static
// dispatch) and must be empty when that frame exits (§4.4's drop-failure
// check).
type Worktop struct {
	mu      sync.Mutex
	buckets map[string]valuegraph.Bucket
}

func NewWorktop() *Worktop {
	return &Worktop{buckets: make(map[string]valuegraph.Bucket)}
}

// Put merges a bucket onto the worktop, combining with any existing
// holding of the same resource.
func (w *Worktop) Put(b valuegraph.Bucket) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := b.Resource.String()
	if existing, ok := w.buckets[key]; ok {
		merged, err := BucketPut(existing, b)
		if err != nil {
			return err
		}
		w.buckets[key] = merged
		return nil
	}
	w.buckets[key] = b
	return nil
}

// Take removes amount of resource from the worktop, splitting the held
// bucket if it holds more than requested.
func (w *Worktop) Take(resource addr.Address, amount uint64) (valuegraph.Bucket, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := resource.String()
	held, ok := w.buckets[key]
	if !ok {
		held = valuegraph.Bucket{Resource: resource}
	}
	taken, remainder, err := BucketTake(held, amount)
	if err != nil {
		return valuegraph.Bucket{}, err
	}
	if remainder.Amount == 0 {
		delete(w.buckets, key)
	} else {
		w.buckets[key] = remainder
	}
	return taken, nil
}

// TakeAll removes every bucket held of resource.
func (w *Worktop) TakeAll(resource addr.Address) (valuegraph.Bucket, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := resource.String()
	held, ok := w.buckets[key]
	if ok {
		delete(w.buckets, key)
	}
	return held, ok
}

// Empty reports whether the worktop currently holds anything, consulted by
// run()'s end-of-frame drop-failure check.
func (w *Worktop) Empty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buckets) == 0
}

// Drain empties the worktop, returning everything it held. Used when a
// manifest instruction explicitly collects remaining change.
func (w *Worktop) Drain() map[string]valuegraph.Bucket {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.buckets
	w.buckets = make(map[string]valuegraph.Bucket)
	return out
}
