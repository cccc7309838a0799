package callframe

import (
	"sync"

	"golang.org/x/crypto/blake2b"
	"github.com/google/uuid"

	"github.com/ledgervm/engine/internal/abi"
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/codert"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/track"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// localCounters is the transaction-wide bucket/proof id allocator: unlike
// durable values, buckets and proofs never outlive the transaction, so a
// simple shared monotonic counter (not the transaction-hash-keyed
// idFactory Track uses) is enough to keep them distinct.
type localCounters struct {
	mu     sync.Mutex
	bucket uint32
	proof  uint32
}

func (c *localCounters) nextBucket() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bucket++
	return c.bucket
}

func (c *localCounters) nextProof() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proof++
	return c.proof
}

// CallFrame is one entry of the invocation stack (§4). The root frame is
// built once per transaction by NewRoot; every further frame is a child
// built by InvokeSNode.
type CallFrame struct {
	Depth     int
	TxHash    [32]byte
	Track     *track.Track
	Runtime   codert.Instrument
	ABI       *abi.Registry
	Resources *modules.ResourceRegistry
	Cost      *CostCounter
	Fees      *FeeTable
	Counters  *localCounters

	AuthZone       *auth.AuthZone
	Worktop        *modules.Worktop
	CallerAuthZone *auth.AuthZone
	Parent         *CallFrame

	// Manifest is read by Static(TransactionProcessor).run; only ever
	// populated on the frame an engine driver is about to invoke that
	// target against.
	Manifest []modules.Instruction

	mu       sync.Mutex
	owned    map[string]*valuegraph.Cell
	ownedIDs map[string]ids.ValueId
	borrowed map[string]*valuegraph.Cell
}

// NewRoot builds the transaction's root frame, seeding one auth-zone proof
// per signer public key (§4.4: "seeds an auth-zone proof derived from the
// signer public keys") and a fresh, empty worktop.
func NewRoot(txHash [32]byte, signerKeys [][]byte, tr *track.Track, rt codert.Instrument, abiRegistry *abi.Registry, resources *modules.ResourceRegistry, cost *CostCounter, fees *FeeTable) *CallFrame {
	zone := auth.NewAuthZone()
	for _, key := range signerKeys {
		zone.Push(valuegraph.Proof{Resource: auth.SignerResource(key), Amount: 1})
	}
	return &CallFrame{
		TxHash:    txHash,
		Track:     tr,
		Runtime:   rt,
		ABI:       abiRegistry,
		Resources: resources,
		Cost:      cost,
		Fees:      fees,
		Counters:  &localCounters{},
		AuthZone:  zone,
		Worktop:   modules.NewWorktop(),
		owned:     make(map[string]*valuegraph.Cell),
		ownedIDs:  make(map[string]ids.ValueId),
		borrowed:  make(map[string]*valuegraph.Cell),
	}
}

func (f *CallFrame) newChild() *CallFrame {
	return &CallFrame{
		Depth:          f.Depth + 1,
		TxHash:         f.TxHash,
		Track:          f.Track,
		Runtime:        f.Runtime,
		ABI:            f.ABI,
		Resources:      f.Resources,
		Cost:           f.Cost,
		Fees:           f.Fees,
		Counters:       f.Counters,
		CallerAuthZone: f.AuthZone,
		Parent:         f,
		owned:          make(map[string]*valuegraph.Cell),
		ownedIDs:       make(map[string]ids.ValueId),
		borrowed:       make(map[string]*valuegraph.Cell),
	}
}

// cellFor finds an id's backing cell among this frame's owned or borrowed
// values.
func (f *CallFrame) cellFor(id ids.ValueId) (*valuegraph.Cell, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := id.String()
	if cell, ok := f.owned[key]; ok {
		return cell, true
	}
	if cell, ok := f.borrowed[key]; ok {
		return cell, true
	}
	return nil, false
}

// own installs a freshly created or returned value as this frame's own.
func (f *CallFrame) own(id ids.ValueId, value valuegraph.REValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := id.String()
	f.owned[key] = &valuegraph.Cell{Value: value}
	f.ownedIDs[key] = id
}

// putBack re-installs a cell removed by takeMoved, used when takeMoved
// rejects the value it just took and when restoreMoved hands moved values
// back after a failed call.
func (f *CallFrame) putBack(id ids.ValueId, cell *valuegraph.Cell) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := id.String()
	f.owned[key] = cell
	f.ownedIDs[key] = id
}

// sweepOwned drains every Bucket/Proof this frame still owns (the moved
// values a call boundary hands back to its caller), failing with
// DropFailureError if anything else - a Vault, Component, KeyValueStore,
// Package, or ResourceManager - was left owned without being globalised
// (invariant 5).
func (f *CallFrame) sweepOwned() (map[string]movedEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]movedEntry, len(f.owned))
	for key, cell := range f.owned {
		switch cell.Value.(type) {
		case valuegraph.Bucket, valuegraph.Proof:
			out[key] = movedEntry{id: f.ownedIDs[key], cell: cell}
		default:
			return nil, &engineerr.DropFailureError{ID: f.ownedIDs[key]}
		}
	}
	f.owned = make(map[string]*valuegraph.Cell)
	f.ownedIDs = make(map[string]ids.ValueId)
	return out, nil
}

// hashFromUUID derives a 25-byte addr.Hash from a fresh uuid, the seed
// every freshly minted global address (Resource/GlobalComponent/Package)
// in this engine is built from.
func hashFromUUID(u uuid.UUID) addr.Hash {
	sum := blake2b.Sum256(u[:])
	var h addr.Hash
	copy(h[:], sum[:len(h)])
	return h
}
