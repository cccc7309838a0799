package modules

import (
	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/codec"
	"github.com/ledgervm/engine/internal/valuegraph"
)

// ComponentState reads a component's current state blob, the ComponentOffset
// "Info" escape hatch §4.4 grants regardless of prior visibility.
func ComponentState(c *valuegraph.Component) codec.Value {
	return c.State
}

// ComponentSetState overwrites a component's state blob, the write half of
// a Scrypto(Component) method call's write_value_data step.
func ComponentSetState(c *valuegraph.Component, v codec.Value) {
	c.State = v
}

// NewComponent constructs a fresh component instance at instantiation
// time, adopting the given children as its owned subtree.
func NewComponent(packageAddress addr.Address, blueprint string, state codec.Value, children map[string]valuegraph.REValue) *valuegraph.Component {
	c := &valuegraph.Component{
		PackageAddress: packageAddress,
		Blueprint:      blueprint,
		State:          state,
		Children:       valuegraph.NewInMemoryChildren(),
	}
	c.Children.InsertChildren(children)
	return c
}
