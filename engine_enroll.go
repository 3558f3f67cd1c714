package credauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fathallahma/mspr-manager-projet/password"
)

// EnrollSecondFactor describes the enrollsecondfactor operation and its observable behavior.
//
// EnrollSecondFactor may return an error when input validation, dependency calls, or security checks fail.
// EnrollSecondFactor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Enrollment is one-shot: a user that already carries a second factor secret
// is rejected with ErrSecondFactorExists. The secret is persisted only inside
// an encrypted envelope; the plaintext secret and the provisioning URI are
// returned once to the caller and never stored.
func (e *Engine) EnrollSecondFactor(ctx context.Context, username string) (*EnrollmentResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrUserNotFound)
	}

	record, err := e.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricEnrollRejected)
			e.emitAudit(ctx, auditEventEnrollRejected, false, "", username, ErrUserNotFound, nil)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	enrolled, err := e.store.HasMFAEnrolled(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if enrolled {
		e.metricInc(MetricEnrollRejected)
		e.emitAudit(ctx, auditEventEnrollRejected, false, record.ID, username, ErrSecondFactorExists, nil)
		return nil, ErrSecondFactorExists
	}

	secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	envelope, err := e.cipher.Encrypt(secret)
	if err != nil {
		return nil, err
	}

	if err := e.store.SetMFASecret(ctx, record.ID, envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricEnrollSuccess)
	e.emitAudit(ctx, auditEventEnrollSuccess, true, record.ID, username, nil, nil)

	return &EnrollmentResult{
		Username: record.Username,
		Secret:   secret,
		URI:      e.totp.ProvisionURI(secret, record.Username),
	}, nil
}

// ProvisionAccount describes the provisionaccount operation and its observable behavior.
//
// ProvisionAccount may return an error when input validation, dependency calls, or security checks fail.
// ProvisionAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The generated password is returned once in cleartext; only its digest is
// persisted. The new account starts with a fresh activity timestamp and no
// second factor.
func (e *Engine) ProvisionAccount(ctx context.Context, username string) (*ProvisionResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("credauth: username is required")
	}

	cleartext, err := password.Generate(e.config.Password.GeneratedLength)
	if err != nil {
		return nil, err
	}

	record, err := e.store.CreateUser(ctx, CreateUserInput{
		Username:       username,
		PasswordDigest: password.Hash(cleartext),
		LastActivity:   e.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricAccountProvisioned)
	e.emitAudit(ctx, auditEventAccountProvisioned, true, record.ID, username, nil, nil)

	return &ProvisionResult{
		UserID:   record.ID,
		Username: record.Username,
		Password: cleartext,
	}, nil
}
