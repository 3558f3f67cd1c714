// Package password implements one-way digest hashing with transparent legacy-format
// support, plus generation of provisioned credentials.
//
// The current scheme is SHA-512 encoded as 128 lowercase hex characters. Records
// created before the scheme change carry SHA-256 digests of 64 hex characters; Verify
// detects the stored format by length and compares against the matching scheme. Any
// other stored length is an unrecoverable data fault, not a user error.
package password
