package credauth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fathallahma/mspr-manager-projet/password"
	"github.com/fathallahma/mspr-manager-projet/token"
	"github.com/fathallahma/mspr-manager-projet/vault"
)

// Engine defines a public type used by credauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config  Config
	store   CredentialStore
	cipher  *vault.Cipher
	totp    *totpManager
	tokens  *token.Manager
	audit   *auditDispatcher
	metrics *Metrics
	now     func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// decision is the output of the pure evaluation core: an outcome plus the
// store writes it requires. It performs no I/O.
type decision struct {
	outcome   Outcome
	mutations []Mutation
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The check ordering is fixed: existence, expiry, password, second factor.
// UserNotFound and InvalidCredentials must be presented identically at the
// transport boundary to avoid username enumeration.
func (e *Engine) Authenticate(ctx context.Context, username, pass, code string) (*AuthResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	username = strings.TrimSpace(username)
	pass = strings.TrimSpace(pass)
	code = strings.TrimSpace(code)

	if username == "" || pass == "" {
		e.metricInc(MetricAuthMissingCredentials)
		e.emitAudit(ctx, auditEventAuthFailure, false, "", username, nil, func() map[string]string {
			return map[string]string{
				"reason": "missing_credentials",
			}
		})
		return &AuthResult{Outcome: OutcomeMissingCredentials}, nil
	}

	record, err := e.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, auditEventAuthFailure, false, "", username, ErrUserNotFound, func() map[string]string {
				return map[string]string{
					"reason": "user_not_found",
				}
			})
			return &AuthResult{Outcome: OutcomeUserNotFound}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := e.now()
	dec, err := e.evaluate(record, pass, code, now)
	if err != nil {
		e.emitAudit(ctx, auditEventAuthFailure, false, record.ID, username, err, func() map[string]string {
			return map[string]string{
				"reason": "stored_data_fault",
			}
		})
		return nil, err
	}

	if err := e.applyMutations(ctx, dec.mutations); err != nil {
		return nil, err
	}

	result := &AuthResult{
		Outcome:   dec.outcome,
		Mutations: dec.mutations,
	}

	switch dec.outcome {
	case OutcomeAccountExpired:
		e.metricInc(MetricAccountExpired)
		e.emitAudit(ctx, auditEventAccountExpired, false, record.ID, username, nil, nil)
	case OutcomeInvalidCredentials:
		e.metricInc(MetricAuthFailure)
		e.emitAudit(ctx, auditEventAuthFailure, false, record.ID, username, nil, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
	case OutcomeSecondFactorRequired:
		e.metricInc(MetricSecondFactorRequired)
		e.emitAudit(ctx, auditEventAuthFailure, false, record.ID, username, nil, func() map[string]string {
			return map[string]string{
				"reason": "second_factor_required",
			}
		})
	case OutcomeInvalidSecondFactor:
		e.metricInc(MetricSecondFactorFailure)
		e.emitAudit(ctx, auditEventAuthFailure, false, record.ID, username, nil, func() map[string]string {
			return map[string]string{
				"reason": "second_factor_mismatch",
			}
		})
	case OutcomeDecryptionFault:
		e.metricInc(MetricDecryptFault)
		e.emitAudit(ctx, auditEventDecryptFault, false, record.ID, username, vault.ErrDecryptionFailed, nil)
	case OutcomeSuccess:
		result.UserID = record.ID
		result.Username = record.Username
		result.HasSecondFactor = record.HasSecondFactor()
		result.LastActivity = now

		if record.HasSecondFactor() {
			e.metricInc(MetricSecondFactorSuccess)
		}
		e.metricInc(MetricAuthSuccess)

		if e.tokens != nil {
			signed, err := e.tokens.Create(record.ID, record.Username, record.HasSecondFactor())
			if err != nil {
				return nil, err
			}
			result.Token = signed
		}

		e.emitAudit(ctx, auditEventAuthSuccess, true, record.ID, username, nil, nil)
	}

	return result, nil
}

// evaluate is the pure decision core. It reads the record and the clock,
// produces an outcome plus required mutations, and never touches the store.
// The only error condition is a malformed stored digest.
func (e *Engine) evaluate(record *CredentialRecord, pass, code string, now time.Time) (decision, error) {
	if record.Expired || isExpired(record.LastActivity, e.config.Expiry.InactivityLimitDays, now) {
		d := decision{outcome: OutcomeAccountExpired}
		if !record.Expired {
			// Lazy flip: persisted once so the policy is not recomputed forever.
			d.mutations = append(d.mutations, Mutation{
				Kind:   MutationSetExpired,
				UserID: record.ID,
			})
		}
		return d, nil
	}

	ok, err := password.Verify(pass, record.PasswordDigest)
	if err != nil {
		return decision{}, fmt.Errorf("%w: %v", ErrDigestMalformed, err)
	}
	if !ok {
		return decision{outcome: OutcomeInvalidCredentials}, nil
	}

	if record.HasSecondFactor() {
		secret := record.MFASecret
		if vault.IsEnvelope(secret) {
			plain, err := e.cipher.Decrypt(secret)
			if err != nil {
				return decision{outcome: OutcomeDecryptionFault}, nil
			}
			secret = plain
		}

		if code == "" {
			return decision{outcome: OutcomeSecondFactorRequired}, nil
		}
		if !e.totp.Verify(secret, code, now) {
			return decision{outcome: OutcomeInvalidSecondFactor}, nil
		}
	}

	d := decision{outcome: OutcomeSuccess}

	if e.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := password.NeedsUpgrade(record.PasswordDigest); err == nil && needsUpgrade {
			d.mutations = append(d.mutations, Mutation{
				Kind:   MutationUpgradeDigest,
				UserID: record.ID,
				Digest: password.Hash(pass),
			})
		}
	}

	d.mutations = append(d.mutations, Mutation{
		Kind:      MutationRefreshActivity,
		UserID:    record.ID,
		Timestamp: now,
	})

	return d, nil
}

func (e *Engine) applyMutations(ctx context.Context, mutations []Mutation) error {
	for _, m := range mutations {
		switch m.Kind {
		case MutationSetExpired:
			if err := e.store.SetExpired(ctx, m.UserID); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		case MutationRefreshActivity:
			if err := e.store.UpdateLastActivity(ctx, m.UserID, m.Timestamp); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		case MutationUpgradeDigest:
			// Upgrade write-back is best-effort and must not block successful login.
			if err := e.store.UpdatePasswordDigest(ctx, m.UserID, m.Digest); err != nil {
				log.Print("credauth: legacy digest upgrade update failed")
				continue
			}
			e.metricInc(MetricDigestUpgraded)
		}
	}
	return nil
}
