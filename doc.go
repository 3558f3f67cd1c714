// Package credauth provides a credential and second-factor verification engine with
// transparent legacy digest support, AES-GCM-encrypted TOTP secrets at rest, and
// inactivity-based account expiry.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// credauth is the public surface. It exposes [Engine], [Builder], [Config], the
// [CredentialStore] interface, and value types (AuthResult, Outcome, EnrollmentResult,
// etc.). All internal coordination — outcome evaluation, mutation application, audit
// dispatch — lives behind unexported types and is never exported.
//
// # What this package must NOT do
//
//   - Expose database clients, cipher internals, or wire encodings in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Log or audit plaintext passwords, TOTP secrets, or decrypted envelopes.
//
// # Decision contract
//
// Authenticate is the hot path. Every branch produces an explicit, enumerable [Outcome];
// store mutations (expiry flagging, activity refresh, digest upgrade) are computed by a
// pure decision core and applied afterwards, so the decision logic stays independently
// testable.
package credauth
