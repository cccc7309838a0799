// Package engine wires the core collaborators - Track, CallFrame, the
// code-runtime, the ABI registry, and the commit protocol - into the
// single entry point a driver submits a transaction manifest through
// (§4.4, §4.5, §6). Everything below this package already knows how to
// dispatch and move values; engine only knows how to run one transaction
// from a fresh Track to a committed receipt.
package engine

import (
	"fmt"
	"time"

	"github.com/ledgervm/engine/internal/abi"
	"github.com/ledgervm/engine/internal/callframe"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/codert"
	"github.com/ledgervm/engine/internal/enginelog"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/receipt"
	"github.com/ledgervm/engine/internal/substatestore"
	"github.com/ledgervm/engine/internal/track"
)

var log = enginelog.Get("engine")

// Engine holds the collaborators that persist across transactions: the
// durable store, the code-runtime instances are run through, the shared
// ABI registry, and the shared resource-manager registry. A fresh Track
// and CallFrame stack are built per transaction.
type Engine struct {
	Store     substatestore.Store
	Runtime   codert.Instrument
	ABI       *abi.Registry
	Resources *modules.ResourceRegistry
	Fees      *callframe.FeeTable
	CostLimit uint64
}

// New builds an Engine with the default fee table and a generous default
// cost limit; callers that need a tighter budget can set CostLimit
// directly afterward.
func New(store substatestore.Store, rt codert.Instrument, abiRegistry *abi.Registry, resources *modules.ResourceRegistry) *Engine {
	return &Engine{
		Store:     store,
		Runtime:   rt,
		ABI:       abiRegistry,
		Resources: resources,
		Fees:      callframe.DefaultFeeTable(),
		CostLimit: 10_000_000,
	}
}

// Result is what Submit returns on a successful transaction: the manifest's
// per-instruction outputs plus the committed receipt.
type Result struct {
	Outputs []codec.Value
	Receipt receipt.Receipt
}

// Submit runs manifest against a fresh Track seeded from e.Store, under a
// root CallFrame whose auth-zone carries one proof per signer key
// (§4.4). A manifest failure leaves the Track's buffered writes
// discarded - nothing reaches e.Store unless every instruction and the
// final drop-failure/worktop checks all succeed, so a rejected
// transaction is indistinguishable from one that never ran.
func (e *Engine) Submit(txHash [32]byte, signerKeys [][]byte, manifest []modules.Instruction) (*Result, error) {
	start := time.Now()
	txLog := log.WithTxHash(fmt.Sprintf("%x", txHash[:8]))
	txLog.Debugf("submitting transaction with %d instruction(s)", len(manifest))

	tr := track.New(e.Store, txHash)
	cost := callframe.NewCostCounter(e.CostLimit)
	root := callframe.NewRoot(txHash, signerKeys, tr, e.Runtime, e.ABI, e.Resources, cost, e.Fees)
	root.Manifest = manifest

	out, _, err := root.InvokeSNode(callframe.Static{Module: callframe.StaticTransactionProcessor}, "run", codec.Unit(), nil)
	if err != nil {
		txLog.ErrorWithErr("transaction manifest failed, discarding buffered writes", err)
		return nil, err
	}

	leftover, err := root.FinalizeRoot()
	if err != nil {
		txLog.ErrorWithErr("transaction left an unresolved drop-failure or worktop state", err)
		return nil, err
	}
	if len(leftover) > 0 {
		err := &unclaimedOutputsError{count: len(leftover)}
		txLog.ErrorWithErr("transaction rejected", err)
		return nil, err
	}

	built, err := receipt.Build(tr.ToReceipt())
	if err != nil {
		return nil, err
	}
	if err := receipt.Commit(e.Store, built); err != nil {
		return nil, err
	}

	txLog.LogDuration(enginelog.LevelInfo, "transaction committed", time.Since(start))
	return &Result{Outputs: out.Items, Receipt: built}, nil
}

type unclaimedOutputsError struct{ count int }

func (e *unclaimedOutputsError) Error() string {
	return "engine: transaction root frame ended with unclaimed owned values"
}
