package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/valuegraph"
)

func TestVaultWithdrawAndDepositRoundTrip(t *testing.T) {
	resource := testResource()
	v := valuegraph.Vault{Resource: resource, Amount: 100}

	v, bucket, err := VaultWithdraw(v, 30)
	require.NoError(t, err)
	require.Equal(t, uint64(70), v.Amount)
	require.Equal(t, uint64(30), bucket.Amount)

	v, err = VaultDeposit(v, bucket)
	require.NoError(t, err)
	require.Equal(t, uint64(100), v.Amount)
}

func TestVaultWithdrawRejectsOverdraw(t *testing.T) {
	v := valuegraph.Vault{Resource: testResource(), Amount: 5}
	_, _, err := VaultWithdraw(v, 6)
	require.Error(t, err)
}

func TestVaultDepositRejectsWrongResource(t *testing.T) {
	v := valuegraph.Vault{Resource: testResource(), Amount: 5}
	bucket := valuegraph.Bucket{Resource: otherResource(), Amount: 1}
	_, err := VaultDeposit(v, bucket)
	require.Error(t, err)
}
