// Package vault implements authenticated encryption of second-factor secrets at rest.
//
// Envelopes are Base64(nonce || ciphertext+tag) under AES-256-GCM with a fresh 12-byte
// nonce per encryption. The 32-byte key is process-wide configuration loaded once at
// startup; any other key length is rejected at construction, never per request.
//
// # Architecture boundaries
//
// This package owns envelope encoding, key validation, and the legacy/envelope
// format-detection heuristic. It performs no storage I/O and never caches plaintext.
//
// # What this package must NOT do
//
//   - Return partially decrypted data: any tag or format failure is ErrDecryptionFailed.
//   - Log key material or plaintext secrets.
package vault
