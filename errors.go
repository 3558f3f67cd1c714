package credauth

import "errors"

var (
	// ErrUserNotFound is an exported constant or variable used by the authentication engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is an exported constant or variable used by the authentication engine.
	ErrUserExists = errors.New("user already exists")
	// ErrSecondFactorExists is an exported constant or variable used by the authentication engine.
	ErrSecondFactorExists = errors.New("second factor already enrolled")
	// ErrDigestMalformed is an exported constant or variable used by the authentication engine.
	ErrDigestMalformed = errors.New("stored password digest malformed")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
