package main

import (
	"github.com/ledgervm/engine/internal/abi"
	"github.com/ledgervm/engine/internal/engine"
	"github.com/ledgervm/engine/internal/modules"
)

// buildEngine assembles an Engine against h's file-backed store, loading
// whatever ledger state a prior ledgerctl invocation left behind, and
// registers the ABI for the demo blueprints newDemoRuntime ships.
func buildEngine(h *harness) (*engine.Engine, *fileBackedStore, error) {
	store := newFileBackedStore(h.storePath)
	if err := store.load(); err != nil {
		return nil, nil, err
	}

	abiRegistry := abi.NewRegistry()
	_ = abiRegistry.Register("Echo", []abi.FunctionSpec{
		{Ident: "echo", Export: "echo"},
	})
	_ = abiRegistry.Register("Counter", []abi.FunctionSpec{
		{Ident: "instantiate", Export: "instantiate"},
		{Ident: "increment", Export: "increment"},
	})

	e := engine.New(store, newDemoRuntime(), abiRegistry, modules.NewResourceRegistry())
	return e, store, nil
}
