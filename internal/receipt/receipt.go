// Package receipt implements the commit protocol that turns a drained
// track.Receipt into durable writes against a substatestore.Store:
// ordered Down/VirtualDown/Up/VirtualUp operations, each Up/VirtualUp
// entry assigned a fresh physical id derived from the receipt's own hash
// and the entry's index so that replaying the same receipt twice is
// detectable rather than silently overwriting.
package receipt

import (
	"encoding/binary"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/ledgervm/engine/internal/substatestore"
	"github.com/ledgervm/engine/internal/track"
)

// Op is one operation in the ordered commit sequence.
type Op int

const (
	OpDown Op = iota
	OpVirtualDown
	OpUp
	OpVirtualUp
)

func (o Op) String() string {
	switch o {
	case OpDown:
		return "Down"
	case OpVirtualDown:
		return "VirtualDown"
	case OpUp:
		return "Up"
	case OpVirtualUp:
		return "VirtualUp"
	default:
		return "?"
	}
}

// Entry is one operation in commit order: Downs and VirtualDowns first
// (releasing whatever a transaction read or superseded), then Ups and
// VirtualUps (installing what it wrote), each within its own kind sorted
// by key for a deterministic commit order independent of Go map
// iteration.
type Entry struct {
	Op     Op
	Key    string
	PhysID uint64
}

// Receipt is the ordered, hash-stamped form of a track.Receipt, ready to
// replay against a substatestore.Store.
type Receipt struct {
	Hash    [32]byte
	Entries []Entry
	// Substates holds the encoded bytes to write for every Up/VirtualUp
	// entry, keyed the same way as Entry.Key.
	Substates    map[string][]byte
	NewAddresses int
	Logs         []string
}

// Build orders a track.Receipt into a deterministic Entry sequence and
// derives its hash from the sorted operation keys, so that two
// transactions producing byte-identical writes also produce the same
// receipt hash.
func Build(tr track.Receipt) (Receipt, error) {
	downKeys := sortedKeys(tr.Downed)
	virtualDownKeys := sortedKeys(tr.VirtualDowned)
	upKeys := sortedKeysSub(tr.Up)
	virtualUpKeys := sortedKeysBool(tr.VirtualUp)

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return Receipt{}, err
	}
	for _, k := range downKeys {
		hasher.Write([]byte("down:"))
		hasher.Write([]byte(k))
	}
	for _, k := range virtualDownKeys {
		hasher.Write([]byte("vdown:"))
		hasher.Write([]byte(k))
	}
	for _, k := range upKeys {
		hasher.Write([]byte("up:"))
		hasher.Write([]byte(k))
	}
	for _, k := range virtualUpKeys {
		hasher.Write([]byte("vup:"))
		hasher.Write([]byte(k))
	}
	var hash [32]byte
	copy(hash[:], hasher.Sum(nil))

	r := Receipt{
		Hash:         hash,
		Substates:    make(map[string][]byte),
		NewAddresses: len(tr.NewAddresses),
		Logs:         tr.Logs,
	}

	for _, k := range downKeys {
		r.Entries = append(r.Entries, Entry{Op: OpDown, Key: k, PhysID: tr.Downed[k]})
	}
	for _, k := range virtualDownKeys {
		r.Entries = append(r.Entries, Entry{Op: OpVirtualDown, Key: k})
	}
	for i, k := range upKeys {
		blob, err := track.Encode(tr.Up[k])
		if err != nil {
			return Receipt{}, err
		}
		physID := physIDFor(hash, i)
		r.Entries = append(r.Entries, Entry{Op: OpUp, Key: k, PhysID: physID})
		r.Substates[k] = blob
	}
	for i, k := range virtualUpKeys {
		physID := physIDFor(hash, len(upKeys)+i)
		r.Entries = append(r.Entries, Entry{Op: OpVirtualUp, Key: k, PhysID: physID})
	}

	return r, nil
}

// Commit replays a built Receipt's Up/VirtualUp entries against a store.
// Down/VirtualDown entries are informational (they describe what this
// transaction read or superseded) and require no store action by
// themselves: a superseded key is overwritten by its own Up entry in the
// same receipt, or left alone if it was only read.
func Commit(store substatestore.Store, r Receipt) error {
	for _, e := range r.Entries {
		switch e.Op {
		case OpUp:
			if err := store.PutSubstate([]byte(e.Key), r.Substates[e.Key], e.PhysID); err != nil {
				return err
			}
		case OpVirtualUp:
			if err := store.PutSpace([]byte(e.Key), e.PhysID); err != nil {
				return err
			}
		}
	}
	return nil
}

// physIDFor derives a receipt-local physical id from the receipt hash and
// an entry index, so ids are reproducible from the receipt alone rather
// than depending on a store-side counter that could diverge on replay.
func physIDFor(hash [32]byte, index int) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(index))
	h, _ := blake2b.New256(nil)
	h.Write(hash[:])
	h.Write(buf[:])
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

func sortedKeys(m map[string]uint64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysBool(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysSub(m map[string]track.SubstateValue) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
