package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
)

// Entity is the contract a domain type must satisfy to live in a versioned
// store. Clone must return a deep copy so the store exclusively owns its
// snapshots and readers never observe in-flight mutation.
type Entity[T any] interface {
	EntityID() uuid.UUID
	EntityVersion() uint32
	Clone() T
}

// Store is an in-memory associative store with optimistic version checking.
// It keeps the latest snapshot per id alongside the last committed version;
// Update succeeds only when the incoming entity is exactly one version ahead
// of the stored one.
type Store[T Entity[T]] struct {
	mu             sync.Mutex
	entities       map[uuid.UUID]T
	storedVersions map[uuid.UUID]uint32
	resource       string
}

// NewStore creates an empty store. The resource name appears in errors.
func NewStore[T Entity[T]](resource string) *Store[T] {
	return &Store[T]{
		entities:       make(map[uuid.UUID]T),
		storedVersions: make(map[uuid.UUID]uint32),
		resource:       resource,
	}
}

// Add inserts a new entity snapshot. Fails when the id already exists.
func (s *Store[T]) Add(_ context.Context, e T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := e.EntityID()
	if _, exists := s.entities[id]; exists {
		return errors.NewDuplicateError(s.resource)
	}

	s.entities[id] = e.Clone()
	s.storedVersions[id] = e.EntityVersion()
	return nil
}

// Get returns a copy of the latest snapshot, or a not-found error.
func (s *Store[T]) Get(_ context.Context, id uuid.UUID) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		var zero T
		return zero, errors.NewNotFoundError(s.resource)
	}
	return e.Clone(), nil
}

// GetAll returns copies of every stored snapshot.
func (s *Store[T]) GetAll(_ context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e.Clone())
	}
	return out, nil
}

// Update replaces the stored snapshot under a compare-and-swap on the
// version: the incoming entity must carry storedVersion+1, the increment
// having been applied by the mutating domain operation. Any mismatch means
// a concurrent committer advanced the entity in the interim.
func (s *Store[T]) Update(_ context.Context, e T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := e.EntityID()
	stored, ok := s.storedVersions[id]
	if !ok {
		return errors.NewNotFoundError(s.resource)
	}

	expected := stored + 1
	if e.EntityVersion() != expected {
		return errors.NewVersionConflictError(expected, e.EntityVersion())
	}

	s.entities[id] = e.Clone()
	s.storedVersions[id] = expected
	return nil
}

// StoredVersion exposes the last committed version for an id. Diagnostic.
func (s *Store[T]) StoredVersion(id uuid.UUID) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.storedVersions[id]
	return v, ok
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}
