package track

import "testing"

func TestIDFactoryDeterministic(t *testing.T) {
	var hash [32]byte
	for i := range hash {
		hash[i] = byte(i)
	}
	f := newIDFactory(hash)

	a := f.next(NamespaceVault, 1)
	b := f.next(NamespaceVault, 1)
	if a != b {
		t.Fatalf("expected same (namespace, counter) to derive the same id, got %s and %s", a, b)
	}
}

func TestIDFactoryNamespacesDoNotCollide(t *testing.T) {
	var hash [32]byte
	f := newIDFactory(hash)

	vault := f.next(NamespaceVault, 1)
	component := f.next(NamespaceComponent, 1)
	if vault == component {
		t.Fatalf("expected distinct namespaces at the same counter to diverge, got %s for both", vault)
	}
}

func TestIDFactoryCounterAdvances(t *testing.T) {
	var hash [32]byte
	f := newIDFactory(hash)

	first := f.next(NamespaceResource, 1)
	second := f.next(NamespaceResource, 2)
	if first == second {
		t.Fatalf("expected distinct counters to diverge, got %s for both", first)
	}
}
