package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/ledgervm/engine/internal/substatestore"
)

// fileBackedStore wraps substatestore.InMemory with JSON persistence, so
// ledgerctl invocations across separate process runs (publish in one,
// instantiate in the next) share ledger state via a file on disk instead
// of starting from an empty Track-backed store every time. InMemory's own
// fields are unexported - not reflectable from outside the package - so
// this type mirrors every write into its own exported snapshot rather
// than reaching into InMemory's internals.
type fileBackedStore struct {
	mu   sync.Mutex
	mem  *substatestore.InMemory
	snap snapshot
	path string
}

type snapshot struct {
	Substates map[string]substateEntry `json:"substates"`
	Spaces    map[string]uint64        `json:"spaces"`
	Epoch     uint64                   `json:"epoch"`
}

type substateEntry struct {
	Value  []byte `json:"value"`
	PhysID uint64 `json:"phys_id"`
}

func newFileBackedStore(path string) *fileBackedStore {
	return &fileBackedStore{
		mem: substatestore.NewInMemory(),
		snap: snapshot{
			Substates: make(map[string]substateEntry),
			Spaces:    make(map[string]uint64),
		},
		path: path,
	}
}

// load reads a previously-saved snapshot from s.path, replaying every
// entry into the in-memory backend. A missing file is not an error - the
// very first `ledgerctl submit` on a fresh ledger has nothing to load.
func (s *fileBackedStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ledgerctl: read store file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("ledgerctl: decode store file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range snap.Substates {
		if err := s.mem.PutSubstate([]byte(key), entry.Value, entry.PhysID); err != nil {
			return err
		}
	}
	for key, physID := range snap.Spaces {
		if err := s.mem.PutSpace([]byte(key), physID); err != nil {
			return err
		}
	}
	if err := s.mem.SetEpoch(snap.Epoch); err != nil {
		return err
	}
	s.snap = snap
	if s.snap.Substates == nil {
		s.snap.Substates = make(map[string]substateEntry)
	}
	if s.snap.Spaces == nil {
		s.snap.Spaces = make(map[string]uint64)
	}
	return nil
}

// save writes the current snapshot to s.path as indented JSON.
func (s *fileBackedStore) save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.snap, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *fileBackedStore) GetSubstate(key []byte) (substatestore.Substate, bool, error) {
	return s.mem.GetSubstate(key)
}

func (s *fileBackedStore) GetSpace(spaceKey []byte) (uint64, bool, error) {
	return s.mem.GetSpace(spaceKey)
}

func (s *fileBackedStore) PutSubstate(key []byte, value []byte, physID uint64) error {
	if err := s.mem.PutSubstate(key, value, physID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.snap.Substates[string(key)] = substateEntry{Value: cp, PhysID: physID}
	return nil
}

func (s *fileBackedStore) PutSpace(spaceKey []byte, physID uint64) error {
	if err := s.mem.PutSpace(spaceKey, physID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Spaces[string(spaceKey)] = physID
	return nil
}

func (s *fileBackedStore) GetEpoch() (uint64, error) { return s.mem.GetEpoch() }

func (s *fileBackedStore) SetEpoch(epoch uint64) error {
	if err := s.mem.SetEpoch(epoch); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Epoch = epoch
	return nil
}
