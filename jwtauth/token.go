package jwtauth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType is the typ header value of issued tokens
const TokenType = "JWT"

// Header is the protected JOSE header of a token
type Header struct {
	Algorithm string // alg
	KeyID     string // kid
	Type      string // typ
}

// TokenState tracks where a token is in its lifecycle
type TokenState int

const (
	StateUnsigned TokenState = iota
	StateSigned
)

func (s TokenState) String() string {
	switch s {
	case StateUnsigned:
		return "unsigned"
	case StateSigned:
		return "signed"
	}
	return "unknown"
}

// Token is a signed JWT. Tokens are immutable; verification does not change them
// and may be repeated.
type Token struct {
	Header    Header
	Claims    ClaimSet
	Signature []byte
	raw       string
}

// State reports whether the token carries a signature
func (t *Token) State() TokenState {
	if t == nil || len(t.Signature) == 0 || t.raw == "" {
		return StateUnsigned
	}
	return StateSigned
}

// Serialize returns the compact form header.payload.signature
func (t *Token) Serialize() string {
	return t.raw
}

// Issue signs claims with key. Timestamps are truncated to whole seconds in UTC.
// The returned Token is decoded back from the signed payload, so its claims are
// exactly what Parse and Verify will report (custom numbers as json.Number,
// custom arrays as []any).
func Issue(claims ClaimSet, key *SigningKey) (*Token, error) {
	if !key.CanSign() {
		return nil, NewValidationError(ErrKeyUnavailable, "signing key is missing or has no private component", nil)
	}

	normalized := claims.normalize()
	mapClaims, err := normalized.toMapClaims()
	if err != nil {
		return nil, err
	}

	token := jwt.NewWithClaims(key.method, mapClaims)
	token.Header["kid"] = key.id
	token.Header["typ"] = TokenType

	signed, err := token.SignedString(key.private)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidKeyType) || errors.Is(err, jwt.ErrInvalidKey) {
			return nil, NewValidationError(ErrKeyUnavailable, "signing key is unusable", err)
		}
		return nil, NewValidationError(ErrAlgorithmUnavailable, "failed to sign token", err)
	}

	return Parse(signed)
}

// Parse decodes a compact token without verifying its signature.
// Claims of a parsed token must not be trusted until Verify succeeds.
func Parse(serialized string) (*Token, error) {
	if serialized == "" {
		return nil, NewValidationError(ErrMissingToken, "token is empty", nil)
	}

	parser := jwt.NewParser(jwt.WithJSONNumber())
	mapClaims := jwt.MapClaims{}
	parsed, parts, err := parser.ParseUnverified(serialized, mapClaims)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) && parsed != nil {
			if _, ok := parsed.Header["alg"].(string); ok {
				return nil, NewValidationError(ErrUnsupportedAlgorithm, "token algorithm is not supported", err)
			}
		}
		return nil, NewValidationError(ErrMalformed, "malformed token", err)
	}

	header, err := headerFromJWT(parsed.Header)
	if err != nil {
		return nil, err
	}

	signature, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, NewValidationError(ErrMalformed, "invalid signature encoding", err)
	}

	claims, err := mapJWTClaimsToClaimSet(mapClaims)
	if err != nil {
		return nil, err
	}

	return &Token{
		Header:    header,
		Claims:    *claims,
		Signature: signature,
		raw:       serialized,
	}, nil
}

func headerFromJWT(h map[string]any) (Header, error) {
	var header Header

	alg, ok := h["alg"].(string)
	if !ok {
		if _, exists := h["alg"]; exists {
			return header, NewValidationError(ErrMalformed, "algorithm header must be a string", nil)
		}
		return header, NewValidationError(ErrMalformed, "missing algorithm in token header", nil)
	}
	header.Algorithm = alg

	if kid, ok := h["kid"].(string); ok {
		header.KeyID = kid
	}
	if typ, ok := h["typ"].(string); ok {
		header.Type = typ
	}
	return header, nil
}
