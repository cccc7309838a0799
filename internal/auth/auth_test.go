package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/valuegraph"
)

func testResource(seed byte) addr.Address {
	var h addr.Hash
	h[0] = seed
	return addr.NewResource(h)
}

func TestSignerResourceIsStablePerKeyAndDistinctAcrossKeys(t *testing.T) {
	a := auth.SignerResource([]byte("alice"))
	aAgain := auth.SignerResource([]byte("alice"))
	b := auth.SignerResource([]byte("bob"))

	require.True(t, a.Equal(aAgain))
	require.False(t, a.Equal(b))
}

func TestRequireProofPassesOnlyWithMatchingZone(t *testing.T) {
	resource := testResource(1)
	rule := auth.RequireProof{Resource: resource}

	empty := auth.NewAuthZone()
	require.Error(t, auth.Check([]auth.Rule{rule}, empty))

	holder := auth.NewAuthZone()
	holder.Push(valuegraph.Proof{Resource: resource, Amount: 1})
	require.NoError(t, auth.Check([]auth.Rule{rule}, holder))

	other := auth.NewAuthZone()
	other.Push(valuegraph.Proof{Resource: testResource(2), Amount: 1})
	require.Error(t, auth.Check([]auth.Rule{rule}, other))
	// Checking against several zones at once, only one of which holds the
	// right proof, still checks out - this is how a component method's own
	// auth-zone and its caller's auth-zone are consulted together (§4.4).
	require.NoError(t, auth.Check([]auth.Rule{rule}, other, holder))
}

func TestRequireAmountComparesAgainstHeldAmount(t *testing.T) {
	resource := testResource(3)
	rule := auth.RequireAmount{Resource: resource, Amount: 50}

	zone := auth.NewAuthZone()
	zone.Push(valuegraph.Proof{Resource: resource, Amount: 10})
	require.Error(t, auth.Check([]auth.Rule{rule}, zone))

	zone.Push(valuegraph.Proof{Resource: resource, Amount: 50})
	require.NoError(t, auth.Check([]auth.Rule{rule}, zone))
}

func TestAnyOfAndAllOf(t *testing.T) {
	resourceA := testResource(4)
	resourceB := testResource(5)
	zone := auth.NewAuthZone()
	zone.Push(valuegraph.Proof{Resource: resourceA, Amount: 1})

	anyOf := auth.AnyOf{Rules: []auth.Rule{
		auth.RequireProof{Resource: resourceB},
		auth.RequireProof{Resource: resourceA},
	}}
	require.NoError(t, auth.Check([]auth.Rule{anyOf}, zone))

	allOf := auth.AllOf{Rules: []auth.Rule{
		auth.RequireProof{Resource: resourceB},
		auth.RequireProof{Resource: resourceA},
	}}
	require.Error(t, auth.Check([]auth.Rule{allOf}, zone))
}

func TestDenyAllAlwaysFails(t *testing.T) {
	zone := auth.NewAuthZone()
	err := auth.Check([]auth.Rule{auth.DenyAll{}}, zone)
	require.Error(t, err)
	var authErr *engineerr.AuthorisationFailureError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "DenyAll", authErr.Rule)
}

func TestAuthZoneClearDropsEveryProof(t *testing.T) {
	zone := auth.NewAuthZone()
	zone.Push(valuegraph.Proof{Resource: testResource(6), Amount: 1})
	zone.Push(valuegraph.Proof{Resource: testResource(7), Amount: 1})

	dropped := zone.Clear()
	require.Len(t, dropped, 2)
	require.Empty(t, zone.Proofs())
}
