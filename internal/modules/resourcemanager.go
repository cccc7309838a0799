package modules

import (
	"sync"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/auth"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/engineerr"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// ResourceManager is the engine-wide (not frame-local) auth-bearing half of
// a deployed resource: the rules governing mint/withdraw/vault-auth, kept
// alongside but separate from the persisted valuegraph.ResourceManager
// substate, which carries only metadata. A real ledger keeps these rules
// inside the substate too; splitting them out here keeps the substate
// codec simple while still making the rules a genuine, checked collaborator.
type ResourceManager struct {
	Address      addr.Address
	MintAuth     auth.Rule
	WithdrawAuth auth.Rule
	VaultAuth    auth.Rule
}

// ResourceRegistry is the per-transaction (often per-engine) table of
// ResourceManagers, shared by every CallFrame in a call stack so a nested
// invocation sees the same auth rules the root frame registered.
type ResourceRegistry struct {
	mu       sync.RWMutex
	managers map[string]*ResourceManager
}

func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{managers: make(map[string]*ResourceManager)}
}

// Register installs a resource's auth rules, called once when
// Static(Resource).create runs.
func (r *ResourceRegistry) Register(rm *ResourceManager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers[rm.Address.String()] = rm
}

// Get looks up a resource's auth rules, returning
// ResourceManagerNotFoundError if the resource was never registered.
func (r *ResourceRegistry) Get(address addr.Address) (*ResourceManager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.managers[address.String()]
	if !ok {
		return nil, &engineerr.ResourceManagerNotFoundError{Address: address.String()}
	}
	return rm, nil
}

// ResourceManagerMetadata builds the persisted substate value for a new
// resource, carrying only the caller-supplied metadata document.
func ResourceManagerMetadata(metadata codec.Value) valuegraph.ResourceManager {
	return valuegraph.ResourceManager{Metadata: metadata}
}

// ResourceManagerAuth resolves which rule governs one resource-manager
// function, the ResourceRef dispatch target's authorisation lookup (§4.5).
func ResourceManagerAuth(rm *ResourceManager, fnIdent string) auth.Rule {
	switch fnIdent {
	case "mint":
		if rm.MintAuth != nil {
			return rm.MintAuth
		}
	case "withdraw":
		if rm.WithdrawAuth != nil {
			return rm.WithdrawAuth
		}
	case "vault_auth":
		if rm.VaultAuth != nil {
			return rm.VaultAuth
		}
	}
	return auth.AllowAll{}
}
