package dispensing

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no encounter is open for the prescription.
	ErrNotFound = errors.New("encounter not found")
	// ErrVersionConflict means the caller's expected version is stale.
	ErrVersionConflict = errors.New("encounter version conflict")
	// ErrAlreadyOpen means an encounter for the prescription already exists.
	ErrAlreadyOpen = errors.New("encounter already open")
)

// Store holds open encounters in memory, keyed by prescription id. Encounters
// are transient workflow state: they exist from start until completion or
// cancel and are never persisted.
type Store struct {
	mu         sync.RWMutex
	encounters map[uuid.UUID]*Encounter
}

func NewStore() *Store {
	return &Store{encounters: make(map[uuid.UUID]*Encounter)}
}

// Open registers a new encounter at version 1.
func (s *Store) Open(enc *Encounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.encounters[enc.PrescriptionID]; exists {
		return ErrAlreadyOpen
	}
	enc.Version = 1
	now := time.Now().UTC()
	enc.StartedAt = now
	enc.UpdatedAt = now
	s.encounters[enc.PrescriptionID] = enc
	return nil
}

// Get returns the open encounter for a prescription.
func (s *Store) Get(prescriptionID uuid.UUID) (*Encounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc, ok := s.encounters[prescriptionID]
	if !ok {
		return nil, ErrNotFound
	}
	return enc, nil
}

// Update applies fn to the encounter under the store lock. The caller's
// expectedVersion must match the stored version; on success the version is
// bumped. When fn fails the encounter is left as fn left it, so fn must only
// mutate after its own checks pass.
func (s *Store) Update(prescriptionID uuid.UUID, expectedVersion int, fn func(*Encounter) error) (*Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc, ok := s.encounters[prescriptionID]
	if !ok {
		return nil, ErrNotFound
	}
	if enc.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	if err := fn(enc); err != nil {
		return nil, err
	}
	enc.Version++
	enc.UpdatedAt = time.Now().UTC()
	return enc, nil
}

// Mutate applies fn under the store lock without a version precondition, for
// operations whose wire contract carries no version. The version still bumps
// so concurrent versioned callers observe the change.
func (s *Store) Mutate(prescriptionID uuid.UUID, fn func(*Encounter) error) (*Encounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc, ok := s.encounters[prescriptionID]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(enc); err != nil {
		return nil, err
	}
	enc.Version++
	enc.UpdatedAt = time.Now().UTC()
	return enc, nil
}

// Close discards the encounter. Closing an unknown encounter is a no-op.
func (s *Store) Close(prescriptionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.encounters, prescriptionID)
}

// Count returns the number of open encounters.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.encounters)
}
