package jwtauth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Application claim names
const (
	ClaimUserID = "id"
	ClaimRoles  = "roles"
)

// registeredClaims are claim names with a dedicated ClaimSet field
var registeredClaims = map[string]bool{
	"sub": true, "iss": true, "aud": true, "exp": true,
	"nbf": true, "iat": true, "jti": true,
	ClaimUserID: true, ClaimRoles: true,
}

// ClaimSet represents the claims carried by a token
type ClaimSet struct {
	Subject   string         // User identifier (sub claim)
	Issuer    string         // Token issuer (iss claim)
	Audience  string         // Intended audience (aud claim)
	ExpiresAt time.Time      // Expiration time (exp claim)
	NotBefore time.Time      // Not-before time (nbf claim)
	IssuedAt  time.Time      // Issue time (iat claim)
	ID        string         // Token ID (jti claim)
	UserID    int64          // Numeric user id (id claim), omitted when zero
	Roles     []string       // Role names (roles claim)
	Custom    map[string]any // Further application-specific claims
}

// ExpiredAt reports whether the exp claim lies before now minus leeway.
// A ClaimSet without exp never expires.
func (c *ClaimSet) ExpiredAt(now time.Time, leeway time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt.Add(leeway))
}

// HasRole reports whether role is among the roles claim
func (c *ClaimSet) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// normalize truncates timestamps to the NumericDate precision and drops an empty Custom map
func (c ClaimSet) normalize() ClaimSet {
	trunc := func(t time.Time) time.Time {
		if t.IsZero() {
			return t
		}
		return t.UTC().Truncate(time.Second)
	}
	c.ExpiresAt = trunc(c.ExpiresAt)
	c.NotBefore = trunc(c.NotBefore)
	c.IssuedAt = trunc(c.IssuedAt)
	if len(c.Custom) == 0 {
		c.Custom = nil
	}
	return c
}

// toMapClaims converts the ClaimSet to jwt.MapClaims for signing
func (c ClaimSet) toMapClaims() (jwt.MapClaims, error) {
	m := jwt.MapClaims{}

	for key, value := range c.Custom {
		if registeredClaims[key] {
			return nil, NewValidationError(ErrMalformed,
				fmt.Sprintf("custom claim %q collides with a registered claim", key), nil)
		}
		m[key] = value
	}

	if c.Subject != "" {
		m["sub"] = c.Subject
	}
	if c.Issuer != "" {
		m["iss"] = c.Issuer
	}
	if c.Audience != "" {
		m["aud"] = c.Audience
	}
	if c.ID != "" {
		m["jti"] = c.ID
	}
	if !c.ExpiresAt.IsZero() {
		m["exp"] = jwt.NewNumericDate(c.ExpiresAt)
	}
	if !c.NotBefore.IsZero() {
		m["nbf"] = jwt.NewNumericDate(c.NotBefore)
	}
	if !c.IssuedAt.IsZero() {
		m["iat"] = jwt.NewNumericDate(c.IssuedAt)
	}
	if c.UserID != 0 {
		m[ClaimUserID] = c.UserID
	}
	if c.Roles != nil {
		m[ClaimRoles] = c.Roles
	}

	return m, nil
}

// mapJWTClaimsToClaimSet converts parsed jwt.MapClaims to a ClaimSet.
// Numbers are expected as json.Number (parser built WithJSONNumber).
func mapJWTClaimsToClaimSet(mapClaims jwt.MapClaims) (*ClaimSet, error) {
	claims := &ClaimSet{}

	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := mapClaims["iss"].(string); ok {
		claims.Issuer = iss
	}
	if aud, err := mapClaims.GetAudience(); err == nil && len(aud) > 0 {
		claims.Audience = aud[0]
	}
	if jti, ok := mapClaims["jti"].(string); ok {
		claims.ID = jti
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, NewValidationError(ErrMalformed, "invalid exp claim", err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time.UTC()
	}
	nbf, err := mapClaims.GetNotBefore()
	if err != nil {
		return nil, NewValidationError(ErrMalformed, "invalid nbf claim", err)
	}
	if nbf != nil {
		claims.NotBefore = nbf.Time.UTC()
	}
	iat, err := mapClaims.GetIssuedAt()
	if err != nil {
		return nil, NewValidationError(ErrMalformed, "invalid iat claim", err)
	}
	if iat != nil {
		claims.IssuedAt = iat.Time.UTC()
	}

	if raw, ok := mapClaims[ClaimUserID]; ok {
		id, err := toInt64(raw)
		if err != nil {
			return nil, NewValidationError(ErrMalformed, "invalid id claim", err)
		}
		claims.UserID = id
	}

	if raw, ok := mapClaims[ClaimRoles]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, NewValidationError(ErrMalformed, "roles claim must be an array", nil)
		}
		claims.Roles = make([]string, 0, len(list))
		for _, item := range list {
			role, ok := item.(string)
			if !ok {
				return nil, NewValidationError(ErrMalformed, "roles claim must contain strings", nil)
			}
			claims.Roles = append(claims.Roles, role)
		}
	}

	for key, value := range mapClaims {
		if registeredClaims[key] {
			continue
		}
		if claims.Custom == nil {
			claims.Custom = make(map[string]any)
		}
		claims.Custom[key] = value
	}

	return claims, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}
