package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	credauth "github.com/fathallahma/mspr-manager-projet"
)

const uniqueViolationCode = "23505"

// Schema is the reference DDL for the credentials table. Deployments manage
// migrations themselves; EnsureSchema applies it for development setups.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
    id             UUID PRIMARY KEY,
    username       TEXT NOT NULL UNIQUE,
    password_digest TEXT NOT NULL,
    mfa_secret     TEXT NOT NULL DEFAULT '',
    last_activity  TIMESTAMPTZ NOT NULL,
    expired        BOOLEAN NOT NULL DEFAULT FALSE
);
`

// Store defines a public type used by credauth APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	pool *pgxpool.Pool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect describes the connect operation and its observable behavior.
//
// Connect may return an error when input validation, dependency calls, or security checks fail.
// Connect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: pool creation: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema describes the ensureschema operation and its observable behavior.
//
// EnsureSchema may return an error when input validation, dependency calls, or security checks fail.
// EnsureSchema does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// FindByUsername describes the findbyusername operation and its observable behavior.
//
// FindByUsername may return an error when input validation, dependency calls, or security checks fail.
// FindByUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindByUsername(ctx context.Context, username string) (*credauth.CredentialRecord, error) {
	query := `SELECT id, username, password_digest, mfa_secret, last_activity, expired
	          FROM credentials WHERE username = $1`

	record := &credauth.CredentialRecord{}
	err := s.pool.QueryRow(ctx, query, username).Scan(
		&record.ID,
		&record.Username,
		&record.PasswordDigest,
		&record.MFASecret,
		&record.LastActivity,
		&record.Expired,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credauth.ErrUserNotFound
		}
		return nil, fmt.Errorf("pgstore: select credential: %w", err)
	}

	return record, nil
}

// CreateUser describes the createuser operation and its observable behavior.
//
// CreateUser may return an error when input validation, dependency calls, or security checks fail.
// CreateUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) CreateUser(ctx context.Context, input credauth.CreateUserInput) (*credauth.CredentialRecord, error) {
	query := `INSERT INTO credentials (id, username, password_digest, last_activity)
	          VALUES ($1, $2, $3, $4)`

	record := &credauth.CredentialRecord{
		ID:             uuid.NewString(),
		Username:       input.Username,
		PasswordDigest: input.PasswordDigest,
		LastActivity:   input.LastActivity,
	}

	_, err := s.pool.Exec(ctx, query, record.ID, record.Username, record.PasswordDigest, record.LastActivity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, credauth.ErrUserExists
		}
		return nil, fmt.Errorf("pgstore: insert credential: %w", err)
	}

	return record, nil
}

// SetExpired describes the setexpired operation and its observable behavior.
//
// SetExpired may return an error when input validation, dependency calls, or security checks fail.
// SetExpired does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SetExpired(ctx context.Context, userID string) error {
	return s.exec(ctx, `UPDATE credentials SET expired = TRUE WHERE id = $1`, userID)
}

// UpdateLastActivity describes the updatelastactivity operation and its observable behavior.
//
// UpdateLastActivity may return an error when input validation, dependency calls, or security checks fail.
// UpdateLastActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdateLastActivity(ctx context.Context, userID string, ts time.Time) error {
	return s.exec(ctx, `UPDATE credentials SET last_activity = $2 WHERE id = $1`, userID, ts)
}

// UpdatePasswordDigest describes the updatepassworddigest operation and its observable behavior.
//
// UpdatePasswordDigest may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordDigest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) UpdatePasswordDigest(ctx context.Context, userID, digest string) error {
	return s.exec(ctx, `UPDATE credentials SET password_digest = $2 WHERE id = $1`, userID, digest)
}

// SetMFASecret describes the setmfasecret operation and its observable behavior.
//
// SetMFASecret may return an error when input validation, dependency calls, or security checks fail.
// SetMFASecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) SetMFASecret(ctx context.Context, userID, envelope string) error {
	return s.exec(ctx, `UPDATE credentials SET mfa_secret = $2 WHERE id = $1`, userID, envelope)
}

// HasMFAEnrolled describes the hasmfaenrolled operation and its observable behavior.
//
// HasMFAEnrolled may return an error when input validation, dependency calls, or security checks fail.
// HasMFAEnrolled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) HasMFAEnrolled(ctx context.Context, userID string) (bool, error) {
	query := `SELECT mfa_secret <> '' FROM credentials WHERE id = $1`

	var enrolled bool
	err := s.pool.QueryRow(ctx, query, userID).Scan(&enrolled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, credauth.ErrUserNotFound
		}
		return false, fmt.Errorf("pgstore: select enrollment: %w", err)
	}

	return enrolled, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgstore: update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return credauth.ErrUserNotFound
	}
	return nil
}
