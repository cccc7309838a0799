package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgervm/engine/internal/auth"
)

func TestResourceRegistryRegisterAndGet(t *testing.T) {
	reg := NewResourceRegistry()
	resource := testResource()
	rm := &ResourceManager{Address: resource, WithdrawAuth: auth.RequireProof{Resource: resource}}
	reg.Register(rm)

	got, err := reg.Get(resource)
	require.NoError(t, err)
	require.Same(t, rm, got)
}

func TestResourceRegistryGetNotFound(t *testing.T) {
	reg := NewResourceRegistry()
	_, err := reg.Get(testResource())
	require.Error(t, err)
}

func TestResourceManagerAuthDefaultsToAllowAll(t *testing.T) {
	rm := &ResourceManager{Address: testResource()}
	rule := ResourceManagerAuth(rm, "mint")
	require.Equal(t, auth.AllowAll{}, rule)
}
