package credhash

import "errors"

// Derivation errors
var (
	ErrAlgorithmUnavailable = errors.New("credhash: hash function not available")
	ErrInvalidIterations    = errors.New("credhash: iterations must be at least 1")
	ErrInvalidOutputLength  = errors.New("credhash: output bits must be a positive multiple of 8")
	ErrOutputTooLong        = errors.New("credhash: output length exceeds PBKDF2 maximum")
	ErrEmptySalt            = errors.New("credhash: salt must not be empty")
)

// Credential encoding errors
var (
	ErrCredentialFormat     = errors.New("credhash: invalid credential format")
	ErrCredentialSalt       = errors.New("credhash: invalid salt encoding")
	ErrCredentialHash       = errors.New("credhash: invalid hash encoding")
	ErrCredentialParams     = errors.New("credhash: invalid credential parameters")
	ErrSaltGenerationFailed = errors.New("credhash: failed to generate salt")
)

// ErrMismatch is returned by Check when the password does not match the credential
var ErrMismatch = errors.New("credhash: password does not match")
