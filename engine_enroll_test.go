package credauth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fathallahma/mspr-manager-projet/password"
	"github.com/fathallahma/mspr-manager-projet/vault"
)

func TestEnrollSecondFactor(t *testing.T) {
	store := newRecordingStore()
	store.Seed(CredentialRecord{
		ID:             "user-1",
		Username:       "alice",
		PasswordDigest: password.Hash("correct-horse"),
		LastActivity:   testClock,
	})
	engine := newTestEngine(t, store)
	ctx := context.Background()

	result, err := engine.EnrollSecondFactor(ctx, "alice")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if len(result.Secret) != 32 {
		t.Fatalf("expected a 32-char Base32 secret, got %d chars", len(result.Secret))
	}
	if !strings.HasPrefix(result.URI, "otpauth://totp/COFRAP:alice?") {
		t.Fatalf("unexpected provisioning URI: %s", result.URI)
	}
	if !strings.Contains(result.URI, "secret="+result.Secret) {
		t.Fatal("provisioning URI does not carry the secret")
	}

	record, err := store.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if record.MFASecret == result.Secret {
		t.Fatal("secret persisted in plaintext")
	}
	if !vault.IsEnvelope(record.MFASecret) {
		t.Fatal("persisted secret is not an encrypted envelope")
	}

	// Enrollment is one-shot.
	if _, err := engine.EnrollSecondFactor(ctx, "alice"); !errors.Is(err, ErrSecondFactorExists) {
		t.Fatalf("expected ErrSecondFactorExists on re-enrollment, got %v", err)
	}
}

func TestEnrollSecondFactorUnknownUser(t *testing.T) {
	engine := newTestEngine(t, newRecordingStore())

	if _, err := engine.EnrollSecondFactor(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEnrolledSecretVerifiesEndToEnd(t *testing.T) {
	store := newRecordingStore()
	store.Seed(CredentialRecord{
		ID:             "user-1",
		Username:       "alice",
		PasswordDigest: password.Hash("correct-horse"),
		LastActivity:   testClock,
	})
	engine := newTestEngine(t, store)
	ctx := context.Background()

	enrollment, err := engine.EnrollSecondFactor(ctx, "alice")
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	result, err := engine.Authenticate(ctx, "alice", "correct-horse", currentCode(t, enrollment.Secret, testClock))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected success with freshly enrolled secret, got %s", result.Outcome)
	}
	if !result.HasSecondFactor {
		t.Fatal("enrolled user reported no second factor")
	}
}

func TestProvisionAccount(t *testing.T) {
	store := newRecordingStore()
	engine := newTestEngine(t, store)
	ctx := context.Background()

	result, err := engine.ProvisionAccount(ctx, "bob")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.Username != "bob" || result.UserID == "" {
		t.Fatalf("unexpected provision result: %+v", result)
	}
	if len(result.Password) != 24 {
		t.Fatalf("expected a 24-char generated password, got %d chars", len(result.Password))
	}

	record, err := store.FindByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if record.PasswordDigest != password.Hash(result.Password) {
		t.Fatal("stored digest does not match the generated password")
	}
	if record.HasSecondFactor() {
		t.Fatal("fresh account reported a second factor")
	}

	// The cleartext password must authenticate immediately.
	auth, err := engine.Authenticate(ctx, "bob", result.Password, "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if auth.Outcome != OutcomeSuccess {
		t.Fatalf("expected success with generated password, got %s", auth.Outcome)
	}

	if _, err := engine.ProvisionAccount(ctx, "bob"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists on duplicate, got %v", err)
	}
}
