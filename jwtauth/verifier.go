package jwtauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Status is the outcome of checking a token
type Status int

const (
	StatusValid Status = iota
	StatusInvalidSignature
	StatusMalformed
	StatusExpired
	StatusKeyUnavailable
	StatusNotYetValid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalidSignature:
		return "invalid_signature"
	case StatusMalformed:
		return "malformed"
	case StatusExpired:
		return "expired"
	case StatusKeyUnavailable:
		return "key_unavailable"
	case StatusNotYetValid:
		return "not_yet_valid"
	}
	return "unknown"
}

// Result is the discriminated outcome of Check. Claims is set for StatusValid,
// StatusExpired and StatusNotYetValid; callers must not use it otherwise.
type Result struct {
	Status Status
	Claims *ClaimSet
	Err    error
}

// Valid reports whether the token is authentic and within its lifetime
func (r Result) Valid() bool {
	return r.Status == StatusValid
}

// Verify checks the signature of token against key and returns the signed claims.
// Expiration is not checked; use ClaimSet.ExpiredAt or Check for that.
func Verify(token *Token, key *SigningKey) (*ClaimSet, error) {
	if token == nil || token.raw == "" {
		return nil, NewValidationError(ErrMalformed, "token has not been signed", nil)
	}
	if key == nil || key.public == nil {
		return nil, NewValidationError(ErrKeyUnavailable, "verification key is missing", nil)
	}
	if err := validateAlgorithm(token.Header, key); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithJSONNumber(),
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{key.Algorithm()}),
	)
	mapClaims := jwt.MapClaims{}
	parsed, err := parser.ParseWithClaims(token.raw, mapClaims, func(*jwt.Token) (any, error) {
		return key.public, nil
	})
	if err != nil {
		var valErr *ValidationError
		if errors.As(err, &valErr) {
			return nil, valErr
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, NewValidationError(ErrInvalidSignature, "invalid signature", err)
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, NewValidationError(ErrMalformed, "malformed token", err)
		}
		return nil, NewValidationError(ErrInvalidSignature, "signature verification failed", err)
	}
	if !parsed.Valid {
		return nil, NewValidationError(ErrInvalidSignature, "token is invalid", nil)
	}

	return mapJWTClaimsToClaimSet(mapClaims)
}

// VerifyString parses and verifies a compact token
func VerifyString(serialized string, key *SigningKey) (*ClaimSet, error) {
	token, err := Parse(serialized)
	if err != nil {
		return nil, err
	}
	return Verify(token, key)
}

// Check parses serialized, verifies it against key and then checks exp and nbf against now
// with the given leeway. Tampered and expired tokens yield distinct statuses.
func Check(serialized string, key *SigningKey, now time.Time, leeway time.Duration) Result {
	claims, err := VerifyString(serialized, key)
	if err != nil {
		return Result{Status: statusForError(err), Err: err}
	}

	if err := validateTimes(claims, now, leeway); err != nil {
		return Result{Status: statusForError(err), Claims: claims, Err: err}
	}

	return Result{Status: StatusValid, Claims: claims}
}

func statusForError(err error) Status {
	switch CodeOf(err) {
	case ErrMalformed, ErrMissingToken:
		return StatusMalformed
	case ErrKeyUnavailable:
		return StatusKeyUnavailable
	case ErrExpired:
		return StatusExpired
	case ErrNotYetValid:
		return StatusNotYetValid
	}
	return StatusInvalidSignature
}

// validateAlgorithm ensures the header algorithm is the one bound to key.
// This prevents algorithm confusion attacks.
func validateAlgorithm(header Header, key *SigningKey) error {
	if strings.EqualFold(header.Algorithm, "none") {
		return NewValidationError(ErrNoneAlgorithm, "none algorithm not allowed", nil)
	}
	if header.Algorithm != key.Algorithm() {
		return NewValidationError(
			ErrUnsupportedAlgorithm,
			fmt.Sprintf("algorithm %s not supported (expected: %s)", header.Algorithm, key.Algorithm()),
			nil,
		)
	}
	return nil
}

// validateTimes validates exp and nbf with clock skew tolerance
func validateTimes(claims *ClaimSet, now time.Time, skew time.Duration) error {
	if claims.ExpiredAt(now, skew) {
		return NewValidationError(
			ErrExpired,
			fmt.Sprintf("token expired at %v", claims.ExpiresAt),
			nil,
		)
	}

	if !claims.NotBefore.IsZero() && now.Before(claims.NotBefore.Add(-skew)) {
		return NewValidationError(
			ErrNotYetValid,
			fmt.Sprintf("token not valid until %v", claims.NotBefore),
			nil,
		)
	}

	return nil
}

// parseAndValidateJWT runs the full check used by the HTTP middleware and gRPC interceptor
func parseAndValidateJWT(tokenString string, cfg *Config) (*ClaimSet, error) {
	token, err := Parse(tokenString)
	if err != nil {
		return nil, err
	}

	key, err := cfg.keyFor(token.Header)
	if err != nil {
		return nil, err
	}

	res := Check(tokenString, key, cfg.now(), cfg.ClockSkewLeeway())
	if !res.Valid() {
		return nil, res.Err
	}

	// Refresh tokens are only good for Issuer.Refresh
	if IsRefreshToken(res.Claims) {
		return nil, NewValidationError(ErrWrongTokenUse, "refresh token cannot be used for access", nil)
	}

	if err := validateRequiredClaims(token, cfg); err != nil {
		return nil, err
	}

	return res.Claims, nil
}

// validateRequiredClaims ensures all required claims are present
func validateRequiredClaims(token *Token, cfg *Config) error {
	for _, claimName := range cfg.RequiredClaims() {
		if !hasClaim(&token.Claims, claimName) {
			return NewValidationError(
				ErrMalformed,
				fmt.Sprintf("required claim missing: %s", claimName),
				nil,
			)
		}
	}
	return nil
}

func hasClaim(c *ClaimSet, name string) bool {
	switch name {
	case "sub":
		return c.Subject != ""
	case "iss":
		return c.Issuer != ""
	case "aud":
		return c.Audience != ""
	case "exp":
		return !c.ExpiresAt.IsZero()
	case "nbf":
		return !c.NotBefore.IsZero()
	case "iat":
		return !c.IssuedAt.IsZero()
	case "jti":
		return c.ID != ""
	case ClaimUserID:
		return c.UserID != 0
	case ClaimRoles:
		return c.Roles != nil
	}
	_, ok := c.Custom[name]
	return ok
}
