package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/valuegraph"
)

func testResource() addr.Address {
	var h addr.Hash
	h[0] = 7
	return addr.NewResource(h)
}

func otherResource() addr.Address {
	var h addr.Hash
	h[0] = 9
	return addr.NewResource(h)
}

func TestBucketTakeSplitsAndLeavesRemainder(t *testing.T) {
	resource := testResource()
	b := valuegraph.Bucket{Resource: resource, Amount: 100}

	taken, remainder, err := BucketTake(b, 40)
	require.NoError(t, err)
	require.Equal(t, uint64(40), taken.Amount)
	require.Equal(t, uint64(60), remainder.Amount)
}

func TestBucketTakeRejectsOverdraw(t *testing.T) {
	b := valuegraph.Bucket{Resource: testResource(), Amount: 10}
	_, _, err := BucketTake(b, 20)
	require.Error(t, err)
}

func TestBucketTakeRejectsLocked(t *testing.T) {
	b := valuegraph.Bucket{Resource: testResource(), Amount: 10, Locked: true}
	_, _, err := BucketTake(b, 1)
	require.Error(t, err)
}

func TestBucketPutMergesSameResource(t *testing.T) {
	resource := testResource()
	a := valuegraph.Bucket{Resource: resource, Amount: 10}
	b := valuegraph.Bucket{Resource: resource, Amount: 5}
	merged, err := BucketPut(a, b)
	require.NoError(t, err)
	require.Equal(t, uint64(15), merged.Amount)
}

func TestBucketPutRejectsDifferentResources(t *testing.T) {
	a := valuegraph.Bucket{Resource: testResource()}
	b := valuegraph.Bucket{Resource: otherResource()}
	_, err := BucketPut(a, b)
	require.Error(t, err)
}

func TestBucketCreateProofLocksBucket(t *testing.T) {
	b := valuegraph.Bucket{Resource: testResource(), Amount: 50}
	locked, proof := BucketCreateProof(b)
	require.True(t, locked.Locked)
	require.Equal(t, uint64(50), proof.Amount)
}
