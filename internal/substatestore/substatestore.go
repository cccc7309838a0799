// Package substatestore declares the SubstateStore collaborator (§2, §6):
// a content-addressable key/value durable store exposing get/put of
// opaque substate blobs and a notion of "space" parents for virtual,
// lazily-materialised children. It also provides an in-memory reference
// implementation for tests and the demonstration CLI.
package substatestore

import "sync"

// Substate is a single durable key/value pair plus its physical id, the
// identifier the commit protocol uses to reference a specific version of
// a key rather than the key itself (a key can be downed and re-upped
// across commits with a new physical id).
type Substate struct {
	Value  []byte
	PhysID uint64
}

// Store is the collaborator contract: get/put of opaque substate blobs,
// get/put of virtual parent spaces, and an epoch counter. Track reads
// through it and the commit pass (internal/receipt) writes through it; the
// backend never sees ScryptoValue or Address structure, only byte keys.
type Store interface {
	GetSubstate(key []byte) (Substate, bool, error)
	GetSpace(spaceKey []byte) (uint64, bool, error)
	PutSubstate(key []byte, value []byte, physID uint64) error
	PutSpace(spaceKey []byte, physID uint64) error
	GetEpoch() (uint64, error)
	SetEpoch(epoch uint64) error
}

// InMemory is a single-process reference backend. It is a testing/demo
// implementation; pluggable behind Store so a durable backend can replace
// it without touching Track.
type InMemory struct {
	mu         sync.Mutex
	substates  map[string]Substate
	spaces     map[string]uint64
	epoch      uint64
	nextPhysID uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		substates: make(map[string]Substate),
		spaces:    make(map[string]uint64),
	}
}

// AllocatePhysID hands out the next monotonic physical id, for seeding
// substates directly (as the track tests do). The commit pass derives its
// physical ids from the receipt hash and does not call it.
func (s *InMemory) AllocatePhysID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPhysID++
	return s.nextPhysID
}

func (s *InMemory) GetSubstate(key []byte) (Substate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.substates[string(key)]
	return sub, ok, nil
}

func (s *InMemory) GetSpace(spaceKey []byte) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.spaces[string(spaceKey)]
	return id, ok, nil
}

func (s *InMemory) PutSubstate(key []byte, value []byte, physID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.substates[string(key)] = Substate{Value: cp, PhysID: physID}
	if physID >= s.nextPhysID {
		s.nextPhysID = physID + 1
	}
	return nil
}

func (s *InMemory) PutSpace(spaceKey []byte, physID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[string(spaceKey)] = physID
	if physID >= s.nextPhysID {
		s.nextPhysID = physID + 1
	}
	return nil
}

func (s *InMemory) GetEpoch() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch, nil
}

func (s *InMemory) SetEpoch(epoch uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch
	return nil
}
