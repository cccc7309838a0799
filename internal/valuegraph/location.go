// Package valuegraph implements the in-memory tree of uncommitted values a
// transaction works with: REValue (the heterogeneous value variants),
// REValueInfo/REValueLocation (per-frame visibility bookkeeping), and the
// InMemoryChildren map a Component or KeyValueStore uses to hold its
// nested values until they are globalised or dropped.
//
// The tree invariant in §9 calls for an arena of cells addressed by
// (root-id, path) rather than self-referential borrows: Location below is
// exactly that address, and Cell is the arena slot it resolves to.
package valuegraph

import (
	"fmt"

	"github.com/ledgervm/engine/internal/addr"
	"github.com/ledgervm/engine/internal/ids"
)

// LocationTag discriminates the five ways a value can be reached from a
// frame, mirroring REValueLocation in §3/§4.3.
type LocationTag int

const (
	OwnedRoot LocationTag = iota
	Owned
	BorrowedRoot
	Borrowed
	Track
)

func (t LocationTag) String() string {
	switch t {
	case OwnedRoot:
		return "OwnedRoot"
	case Owned:
		return "Owned"
	case BorrowedRoot:
		return "BorrowedRoot"
	case Borrowed:
		return "Borrowed"
	case Track:
		return "Track"
	default:
		return fmt.Sprintf("LocationTag(%d)", int(t))
	}
}

// Location is a composable address within a frame: a root value plus the
// path walked from it, or a durable substate address once the root has
// been staged into Track. It is the arena key described above; nothing
// about it aliases a parent pointer.
type Location struct {
	Tag     LocationTag
	Root    ids.ValueId  // OwnedRoot/Owned/BorrowedRoot/Borrowed
	Path    ids.Path     // Owned/Borrowed
	Address addr.Address // Track
}

func NewOwnedRoot(id ids.ValueId) Location     { return Location{Tag: OwnedRoot, Root: id} }
func NewBorrowedRoot(id ids.ValueId) Location  { return Location{Tag: BorrowedRoot, Root: id} }
func NewTrack(address addr.Address) Location  { return Location{Tag: Track, Address: address} }

// Child extends a Location by one hop, implementing "Track → Track
// (parent.child(id))" from §4.3. For the Track tag, the caller must
// already know the resulting durable address (it is derived from the
// hop's own ValueId via internal/addr, which only the caller - Track or
// the dispatcher - has enough context to compute), so it is passed in
// rather than recomputed here.
func (l Location) Child(step ids.AddressPath, trackChild addr.Address) Location {
	switch l.Tag {
	case OwnedRoot:
		return Location{Tag: Owned, Root: l.Root, Path: ids.Path{step}}
	case Owned:
		return Location{Tag: Owned, Root: l.Root, Path: l.Path.Append(step)}
	case BorrowedRoot:
		return Location{Tag: Borrowed, Root: l.Root, Path: ids.Path{step}}
	case Borrowed:
		return Location{Tag: Borrowed, Root: l.Root, Path: l.Path.Append(step)}
	case Track:
		return Location{Tag: Track, Address: trackChild}
	default:
		panic(fmt.Sprintf("valuegraph: unknown location tag %v", l.Tag))
	}
}

func (l Location) String() string {
	switch l.Tag {
	case OwnedRoot:
		return fmt.Sprintf("OwnedRoot(%s)", l.Root)
	case Owned:
		return fmt.Sprintf("Owned(%s/%s)", l.Root, l.Path)
	case BorrowedRoot:
		return fmt.Sprintf("BorrowedRoot(%s)", l.Root)
	case Borrowed:
		return fmt.Sprintf("Borrowed(%s/%s)", l.Root, l.Path)
	case Track:
		return fmt.Sprintf("Track(%s)", l.Address)
	default:
		return "Location(?)"
	}
}

// Info is the per-frame visibility record for a ValueId: where the value
// currently lives, and whether this frame may act on it. Entries with
// Visible=false exist only transiently to carry a location hint (§3
// invariant 3); operations must reject access through them.
type Info struct {
	Location Location
	Visible  bool
}
