// Package token manages session-token issuance and verification for logins
// that pass every credential check, using configured signing keys and strict
// validation semantics.
package token
