package modules

import (
	"fmt"

	"github.com/ledgervm/engine/internal/valuegraph"
)

// VaultWithdraw removes amount from a durable vault, producing a bucket
// the caller now owns. The vault itself never leaves Track visibility -
// only the bucket crosses the call boundary.
func VaultWithdraw(v valuegraph.Vault, amount uint64) (valuegraph.Vault, valuegraph.Bucket, error) {
	if amount > v.Amount {
		return v, valuegraph.Bucket{}, fmt.Errorf("modules: cannot withdraw %d from vault holding %d", amount, v.Amount)
	}
	return valuegraph.Vault{Resource: v.Resource, Amount: v.Amount - amount}, valuegraph.Bucket{Resource: v.Resource, Amount: amount}, nil
}

// VaultDeposit folds a bucket's contents into a vault. The bucket is fully
// consumed; callers must not reuse it afterward.
func VaultDeposit(v valuegraph.Vault, b valuegraph.Bucket) (valuegraph.Vault, error) {
	if !v.Resource.Equal(b.Resource) {
		return v, fmt.Errorf("modules: cannot deposit %s into a vault of a different resource", b.Resource)
	}
	return valuegraph.Vault{Resource: v.Resource, Amount: v.Amount + b.Amount}, nil
}

// VaultAmount reads a vault's current balance.
func VaultAmount(v valuegraph.Vault) uint64 { return v.Amount }
