package callframe

import (
	"sync"

	"github.com/ledgervm/engine/internal/engineerr"
)

// CostCounter is the transaction-wide fee meter every frame in a call
// stack shares, charged by run() on each dispatch (§4.4).
type CostCounter struct {
	mu     sync.Mutex
	Limit  uint64
	Spent  uint64
}

func NewCostCounter(limit uint64) *CostCounter {
	return &CostCounter{Limit: limit}
}

// Charge debits amount, failing with CostingError if that would exceed
// the transaction's limit. A failed charge leaves Spent unchanged.
func (c *CostCounter) Charge(amount uint64, activity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Spent+amount > c.Limit {
		return &engineerr.CostingError{Charged: c.Spent + amount, Limit: c.Limit, Activity: activity}
	}
	c.Spent += amount
	return nil
}

// FeeTable prices the handful of billable activities this reference
// engine distinguishes.
type FeeTable struct {
	EngineRun    uint64
	SubstateLock uint64
}

func DefaultFeeTable() *FeeTable {
	return &FeeTable{EngineRun: 10, SubstateLock: 2}
}
