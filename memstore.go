package credauth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore defines a public type used by credauth APIs.
//
// MemoryStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// MemoryStore is a map-backed CredentialStore for tests, examples, and
// single-process deployments. All operations are safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	byName  map[string]string
	records map[string]*CredentialRecord
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
//
// NewMemoryStore may return an error when input validation, dependency calls, or security checks fail.
// NewMemoryStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName:  make(map[string]string),
		records: make(map[string]*CredentialRecord),
	}
}

// FindByUsername describes the findbyusername operation and its observable behavior.
//
// FindByUsername may return an error when input validation, dependency calls, or security checks fail.
// FindByUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, ErrUserNotFound
	}

	clone := *s.records[id]
	return &clone, nil
}

// CreateUser describes the createuser operation and its observable behavior.
//
// CreateUser may return an error when input validation, dependency calls, or security checks fail.
// CreateUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) CreateUser(_ context.Context, input CreateUserInput) (*CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[input.Username]; exists {
		return nil, ErrUserExists
	}

	record := &CredentialRecord{
		ID:             uuid.NewString(),
		Username:       input.Username,
		PasswordDigest: input.PasswordDigest,
		LastActivity:   input.LastActivity,
	}

	s.byName[record.Username] = record.ID
	s.records[record.ID] = record

	clone := *record
	return &clone, nil
}

// SetExpired describes the setexpired operation and its observable behavior.
//
// SetExpired may return an error when input validation, dependency calls, or security checks fail.
// SetExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) SetExpired(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		return ErrUserNotFound
	}
	record.Expired = true
	return nil
}

// UpdateLastActivity describes the updatelastactivity operation and its observable behavior.
//
// UpdateLastActivity may return an error when input validation, dependency calls, or security checks fail.
// UpdateLastActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) UpdateLastActivity(_ context.Context, userID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		return ErrUserNotFound
	}
	record.LastActivity = ts
	return nil
}

// UpdatePasswordDigest describes the updatepassworddigest operation and its observable behavior.
//
// UpdatePasswordDigest may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordDigest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) UpdatePasswordDigest(_ context.Context, userID, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		return ErrUserNotFound
	}
	record.PasswordDigest = digest
	return nil
}

// SetMFASecret describes the setmfasecret operation and its observable behavior.
//
// SetMFASecret may return an error when input validation, dependency calls, or security checks fail.
// SetMFASecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) SetMFASecret(_ context.Context, userID, envelope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[userID]
	if !ok {
		return ErrUserNotFound
	}
	record.MFASecret = envelope
	return nil
}

// HasMFAEnrolled describes the hasmfaenrolled operation and its observable behavior.
//
// HasMFAEnrolled may return an error when input validation, dependency calls, or security checks fail.
// HasMFAEnrolled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) HasMFAEnrolled(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID]
	if !ok {
		return false, ErrUserNotFound
	}
	return record.MFASecret != "", nil
}

// Seed inserts a fully formed record, replacing any previous entry with the
// same username. Intended for tests.
func (s *MemoryStore) Seed(record CredentialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.byName[record.Username] = record.ID
	s.records[record.ID] = &record
}
