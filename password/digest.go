package password

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

const (
	legacyDigestLength  = 64
	currentDigestLength = 128
)

// ErrMalformedDigest is returned when a stored digest is neither 64 nor 128
// hex characters. Treated as an integrity fault by callers.
var ErrMalformedDigest = errors.New("stored digest must be 64 or 128 hex characters")

// DigestFormat defines a public type used by credauth APIs.
//
// DigestFormat instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DigestFormat int

const (
	// FormatCurrent is an exported constant or variable used by the authentication engine.
	FormatCurrent DigestFormat = iota
	// FormatLegacy is an exported constant or variable used by the authentication engine.
	FormatLegacy
)

// DetectFormat sniffs the stored digest format by length. The 64/128 split is
// the single place this heuristic lives; both thresholds are pinned by tests.
func DetectFormat(stored string) (DigestFormat, error) {
	switch len(stored) {
	case legacyDigestLength:
		return FormatLegacy, nil
	case currentDigestLength:
		return FormatCurrent, nil
	default:
		return 0, ErrMalformedDigest
	}
}

// Hash describes the hash operation and its observable behavior.
//
// Hash may return an error when input validation, dependency calls, or security checks fail.
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Hash(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

// LegacyHash computes the retired 64-hex scheme. Exported for fixtures and
// migration tooling only; new digests must use Hash.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Verify describes the verify operation and its observable behavior.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Verify(password, stored string) (bool, error) {
	format, err := DetectFormat(stored)
	if err != nil {
		return false, err
	}

	var computed string
	switch format {
	case FormatLegacy:
		computed = LegacyHash(password)
	default:
		computed = Hash(password)
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1, nil
}

// NeedsUpgrade describes the needsupgrade operation and its observable behavior.
//
// NeedsUpgrade may return an error when input validation, dependency calls, or security checks fail.
// NeedsUpgrade does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NeedsUpgrade(stored string) (bool, error) {
	format, err := DetectFormat(stored)
	if err != nil {
		return false, err
	}
	return format == FormatLegacy, nil
}
