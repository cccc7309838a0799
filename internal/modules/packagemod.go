package modules

import "github.com/ledgervm/engine/internal/valuegraph"

// PackageCode reads a deployed package's raw code bytes, handed to
// codert.Instrument by the Dispatcher's Scrypto(Blueprint)/Scrypto(Component)
// resolution.
func PackageCode(p valuegraph.Package) []byte {
	return p.Code
}

// NewPackage wraps deployed code as the persisted package substate value,
// the Static(Package).publish entry point's result.
func NewPackage(code []byte) valuegraph.Package {
	return valuegraph.Package{Code: code}
}
