package callframe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/ids"
	"github.com/ledgervm/engine/internal/modules"
	"github.com/ledgervm/engine/internal/track"
)

func TestStaticResourceCreateMintAndBucketAmount(t *testing.T) {
	root, _, _, _, _ := newTestRoot(t, nil)

	out, _, err := root.InvokeSNode(Static{Module: StaticResource}, "create", codec.Text("gold"), nil)
	require.NoError(t, err)
	resource, err := addr.Decode(out.Bytes)
	require.NoError(t, err)

	out, outIDs, err := root.InvokeSNode(ResourceRef{Address: resource}, "mint", codec.Uint64(50), nil)
	require.NoError(t, err)
	require.Equal(t, codec.KindUnit, out.Kind)
	require.Len(t, outIDs, 1)
	bucketID := outIDs[0]

	out, _, err = root.InvokeSNode(BucketRef{ID: bucketID}, "amount", codec.Unit(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(50), out.Uint)
}

func TestStaticResourceCreateRejectsUnknownFn(t *testing.T) {
	root, _, _, _, _ := newTestRoot(t, nil)
	_, _, err := root.InvokeSNode(Static{Module: StaticResource}, "burn", codec.Unit(), nil)
	require.Error(t, err)
	var notExist *engineerr.MethodDoesNotExistError
	require.ErrorAs(t, err, &notExist)
}

func TestTrackedVaultDepositWithdrawRoundTrip(t *testing.T) {
	root, tr, _, _, resources := newTestRoot(t, nil)

	resource := testResourceAddr(3)
	resources.Register(&modules.ResourceManager{Address: resource})

	vaultAddr := addr.NewVault(addr.NewGlobalComponent(addr.Hash{9}), mustUUID(t))
	tr.CreateUUIDValue(vaultAddr, track.VaultSubstate{Resource: resource, Amount: 0})

	bucketID, err := root.CreateValue(newBucket(resource, 100))
	require.NoError(t, err)

	_, _, err = root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "deposit", codec.Unit(), []ids.ValueId{bucketID})
	require.NoError(t, err)

	out, _, err := root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "amount", codec.Unit(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(100), out.Uint)

	out, outIDs, err := root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "withdraw", codec.Uint64(30), nil)
	require.NoError(t, err)
	require.Len(t, outIDs, 1)

	out, _, err = root.InvokeSNode(BucketRef{ID: outIDs[0]}, "amount", codec.Unit(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(30), out.Uint)

	out, _, err = root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "amount", codec.Unit(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(70), out.Uint)
}

func TestTrackedVaultWithdrawDeniedForWrongSigner(t *testing.T) {
	ownerKey := []byte("owner-key")
	attackerKey := []byte("attacker-key")

	root, tr, _, _, resources := newTestRoot(t, [][]byte{attackerKey})

	resource := testResourceAddr(4)
	resources.Register(&modules.ResourceManager{
		Address:      resource,
		WithdrawAuth: auth.RequireProof{Resource: auth.SignerResource(ownerKey)},
		VaultAuth:    auth.RequireProof{Resource: auth.SignerResource(ownerKey)},
	})

	vaultAddr := addr.NewVault(addr.NewGlobalComponent(addr.Hash{5}), mustUUID(t))
	tr.CreateUUIDValue(vaultAddr, track.VaultSubstate{Resource: resource, Amount: 200})

	_, _, err := root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "withdraw", codec.Uint64(10), nil)
	require.Error(t, err)
	var authErr *engineerr.AuthorisationFailureError
	require.ErrorAs(t, err, &authErr)
}

func TestTrackedVaultWithdrawAllowedForCorrectSigner(t *testing.T) {
	ownerKey := []byte("owner-key")
	root, tr, _, _, resources := newTestRoot(t, [][]byte{ownerKey})

	resource := testResourceAddr(6)
	resources.Register(&modules.ResourceManager{
		Address:   resource,
		VaultAuth: auth.RequireProof{Resource: auth.SignerResource(ownerKey)},
	})

	vaultAddr := addr.NewVault(addr.NewGlobalComponent(addr.Hash{8}), mustUUID(t))
	tr.CreateUUIDValue(vaultAddr, track.VaultSubstate{Resource: resource, Amount: 200})

	_, outIDs, err := root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "withdraw", codec.Uint64(40), nil)
	require.NoError(t, err)
	require.Len(t, outIDs, 1)
}

func TestTrackedVaultRefResolveReentrancy(t *testing.T) {
	root, tr, _, _, resources := newTestRoot(t, nil)

	resource := testResourceAddr(11)
	resources.Register(&modules.ResourceManager{Address: resource})

	vaultAddr := addr.NewVault(addr.NewGlobalComponent(addr.Hash{12}), mustUUID(t))
	tr.CreateUUIDValue(vaultAddr, track.VaultSubstate{Resource: resource, Amount: 0})

	require.NoError(t, tr.TakeLock(vaultAddr, true))
	defer tr.ReleaseLock(vaultAddr)

	_, _, err := root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "amount", codec.Unit(), nil)
	require.Error(t, err)
	var reentrancy *track.ReentrancyError
	require.ErrorAs(t, err, &reentrancy)
}

func TestInvokeSNodeRestoresMovedValueOnDispatchFailure(t *testing.T) {
	root, tr, _, _, resources := newTestRoot(t, nil)

	resource := testResourceAddr(13)
	otherResource := testResourceAddr(14)
	resources.Register(&modules.ResourceManager{Address: resource})

	vaultAddr := addr.NewVault(addr.NewGlobalComponent(addr.Hash{15}), mustUUID(t))
	tr.CreateUUIDValue(vaultAddr, track.VaultSubstate{Resource: resource, Amount: 0})

	bucketID, err := root.CreateValue(newBucket(otherResource, 10))
	require.NoError(t, err)

	_, _, err = root.InvokeSNode(TrackedVaultRef{Address: vaultAddr}, "deposit", codec.Unit(), []ids.ValueId{bucketID})
	require.Error(t, err)

	out, _, err := root.InvokeSNode(BucketRef{ID: bucketID}, "amount", codec.Unit(), nil)
	require.NoError(t, err, "the moved bucket must have been restored to the caller's frame")
	require.Equal(t, uint64(10), out.Uint)
}
