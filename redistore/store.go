package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	credauth "github.com/fathallahma/mspr-manager-projet"
)

const (
	recordKeyPrefix = "cred:user"
	nameKeyPrefix   = "cred:name"
)

// ErrBackendUnavailable is an exported constant or variable used by the authentication engine.
var ErrBackendUnavailable = errors.New("redistore: backend unavailable")

type storedRecord struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordDigest string    `json:"password_digest"`
	MFASecret      string    `json:"mfa_secret,omitempty"`
	LastActivity   time.Time `json:"last_activity"`
	Expired        bool      `json:"expired"`
}

// Store defines a public type used by credauth APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	redis *redis.Client
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(client *redis.Client) *Store {
	return &Store{redis: client}
}

func recordKey(userID string) string {
	return recordKeyPrefix + ":" + userID
}

func nameKey(username string) string {
	return nameKeyPrefix + ":" + username
}

// FindByUsername describes the findbyusername operation and its observable behavior.
//
// FindByUsername may return an error when input validation, dependency calls, or security checks fail.
// FindByUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindByUsername(ctx context.Context, username string) (*credauth.CredentialRecord, error) {
	userID, err := s.redis.Get(ctx, nameKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, credauth.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return s.load(ctx, userID)
}

// CreateUser describes the createuser operation and its observable behavior.
//
// CreateUser may return an error when input validation, dependency calls, or security checks fail.
// CreateUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) CreateUser(ctx context.Context, input credauth.CreateUserInput) (*credauth.CredentialRecord, error) {
	record := storedRecord{
		ID:             uuid.NewString(),
		Username:       input.Username,
		PasswordDigest: input.PasswordDigest,
		LastActivity:   input.LastActivity,
	}

	// SetNX on the name index is the uniqueness guard.
	ok, err := s.redis.SetNX(ctx, nameKey(record.Username), record.ID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok {
		return nil, credauth.ErrUserExists
	}

	if err := s.save(ctx, &record); err != nil {
		_, _ = s.redis.Del(ctx, nameKey(record.Username)).Result()
		return nil, err
	}

	return toCredentialRecord(&record), nil
}

// SetExpired describes the setexpired operation and its observable behavior.
//
// SetExpired may return an error when input validation, dependency calls, or security checks fail.
// SetExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SetExpired(ctx context.Context, userID string) error {
	return s.update(ctx, userID, func(r *storedRecord) {
		r.Expired = true
	})
}

// UpdateLastActivity describes the updatelastactivity operation and its observable behavior.
//
// UpdateLastActivity may return an error when input validation, dependency calls, or security checks fail.
// UpdateLastActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdateLastActivity(ctx context.Context, userID string, ts time.Time) error {
	return s.update(ctx, userID, func(r *storedRecord) {
		r.LastActivity = ts
	})
}

// UpdatePasswordDigest describes the updatepassworddigest operation and its observable behavior.
//
// UpdatePasswordDigest may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordDigest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdatePasswordDigest(ctx context.Context, userID, digest string) error {
	return s.update(ctx, userID, func(r *storedRecord) {
		r.PasswordDigest = digest
	})
}

// SetMFASecret describes the setmfasecret operation and its observable behavior.
//
// SetMFASecret may return an error when input validation, dependency calls, or security checks fail.
// SetMFASecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SetMFASecret(ctx context.Context, userID, envelope string) error {
	return s.update(ctx, userID, func(r *storedRecord) {
		r.MFASecret = envelope
	})
}

// HasMFAEnrolled describes the hasmfaenrolled operation and its observable behavior.
//
// HasMFAEnrolled may return an error when input validation, dependency calls, or security checks fail.
// HasMFAEnrolled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) HasMFAEnrolled(ctx context.Context, userID string) (bool, error) {
	record, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	return record.MFASecret != "", nil
}

func (s *Store) load(ctx context.Context, userID string) (*credauth.CredentialRecord, error) {
	data, err := s.redis.Get(ctx, recordKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, credauth.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	var record storedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("redistore: corrupt record for %s: %w", userID, err)
	}

	return toCredentialRecord(&record), nil
}

func (s *Store) save(ctx context.Context, record *storedRecord) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, recordKey(record.ID), encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, userID string, mutate func(*storedRecord)) error {
	data, err := s.redis.Get(ctx, recordKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return credauth.ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	var record storedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("redistore: corrupt record for %s: %w", userID, err)
	}

	mutate(&record)
	return s.save(ctx, &record)
}

func toCredentialRecord(r *storedRecord) *credauth.CredentialRecord {
	return &credauth.CredentialRecord{
		ID:             r.ID,
		Username:       r.Username,
		PasswordDigest: r.PasswordDigest,
		MFASecret:      r.MFASecret,
		LastActivity:   r.LastActivity,
		Expired:        r.Expired,
	}
}
