package credauth

import (
	"context"
	"time"
)

// Outcome defines a public type used by credauth APIs.
//
// Outcome instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Outcome uint8

const (
	// OutcomeMissingCredentials is an exported constant or variable used by the authentication engine.
	OutcomeMissingCredentials Outcome = iota
	// OutcomeUserNotFound is an exported constant or variable used by the authentication engine.
	OutcomeUserNotFound
	// OutcomeAccountExpired is an exported constant or variable used by the authentication engine.
	OutcomeAccountExpired
	// OutcomeInvalidCredentials is an exported constant or variable used by the authentication engine.
	OutcomeInvalidCredentials
	// OutcomeSecondFactorRequired is an exported constant or variable used by the authentication engine.
	OutcomeSecondFactorRequired
	// OutcomeInvalidSecondFactor is an exported constant or variable used by the authentication engine.
	OutcomeInvalidSecondFactor
	// OutcomeDecryptionFault is an exported constant or variable used by the authentication engine.
	OutcomeDecryptionFault
	// OutcomeSuccess is an exported constant or variable used by the authentication engine.
	OutcomeSuccess
)

// String returns a stable identifier for logging and audit metadata.
func (o Outcome) String() string {
	switch o {
	case OutcomeMissingCredentials:
		return "missing_credentials"
	case OutcomeUserNotFound:
		return "user_not_found"
	case OutcomeAccountExpired:
		return "account_expired"
	case OutcomeInvalidCredentials:
		return "invalid_credentials"
	case OutcomeSecondFactorRequired:
		return "second_factor_required"
	case OutcomeInvalidSecondFactor:
		return "invalid_second_factor"
	case OutcomeDecryptionFault:
		return "decryption_fault"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// CredentialRecord is the full account record returned by [CredentialStore].
// It carries the stored digest, the optional second-factor secret (legacy
// plaintext Base32 or encrypted envelope), and the lifecycle fields consumed
// by the expiry policy.
type CredentialRecord struct {
	ID             string
	Username       string
	PasswordDigest string
	MFASecret      string
	LastActivity   time.Time
	Expired        bool
}

// HasSecondFactor reports whether a second-factor secret is stored, in either format.
func (r *CredentialRecord) HasSecondFactor() bool {
	return r != nil && r.MFASecret != ""
}

// MutationKind defines a public type used by credauth APIs.
//
// MutationKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MutationKind uint8

const (
	// MutationSetExpired is an exported constant or variable used by the authentication engine.
	MutationSetExpired MutationKind = iota
	// MutationRefreshActivity is an exported constant or variable used by the authentication engine.
	MutationRefreshActivity
	// MutationUpgradeDigest is an exported constant or variable used by the authentication engine.
	MutationUpgradeDigest
)

// Mutation is a single store write required by an authentication decision.
// The decision core never touches the store itself; [Engine.Authenticate]
// applies the returned mutations in order.
type Mutation struct {
	Kind      MutationKind
	UserID    string
	Timestamp time.Time
	Digest    string
}

// AuthResult is returned by [Engine.Authenticate]. Outcome is always set;
// the remaining fields are populated on [OutcomeSuccess].
type AuthResult struct {
	Outcome Outcome

	UserID          string
	Username        string
	HasSecondFactor bool
	LastActivity    time.Time

	// Token carries a signed session token when a token manager is configured.
	Token string

	// Mutations lists the store writes the decision required, in the order
	// they were applied.
	Mutations []Mutation
}

// EnrollmentResult is returned by [Engine.EnrollSecondFactor]. Secret is the
// plaintext Base32 secret shown to the caller exactly once; only the encrypted
// envelope is persisted.
type EnrollmentResult struct {
	Username string
	Secret   string
	URI      string
}

// ProvisionResult is returned by [Engine.ProvisionAccount]. Password is the
// generated plaintext returned to the caller exactly once; only the digest is
// persisted.
type ProvisionResult struct {
	UserID   string
	Username string
	Password string
}

// CreateUserInput is the input for [CredentialStore.CreateUser].
type CreateUserInput struct {
	Username       string
	PasswordDigest string
	LastActivity   time.Time
}

// CredentialStore is the interface callers must implement to integrate
// credauth with their user database. FindByUsername returns
// [ErrUserNotFound] (possibly wrapped) when no record exists; every other
// failure is treated as a backend fault.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*CredentialRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*CredentialRecord, error)
	SetExpired(ctx context.Context, userID string) error
	UpdateLastActivity(ctx context.Context, userID string, ts time.Time) error
	UpdatePasswordDigest(ctx context.Context, userID, digest string) error
	SetMFASecret(ctx context.Context, userID, envelope string) error
	HasMFAEnrolled(ctx context.Context, userID string) (bool, error)
}
