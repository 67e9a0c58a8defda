package jwtauth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Refresh token claims. Access tokens carry neither.
const (
	ClaimSessionStart = "sst"       // start of the login session
	ClaimTokenUse     = "token_use" // TokenUseRefresh on refresh tokens
	TokenUseRefresh   = "refresh"
)

// Default token lifetimes
const (
	DefaultAccessTokenExpire       = 24 * time.Hour
	DefaultRefreshTokenExpire      = 24 * time.Hour
	DefaultMaxRefreshTokenLifetime = 24 * time.Hour
)

// Issuer owns a signing key and mints access and refresh tokens with it.
// The private key never leaves the Issuer; VerificationKey exposes the public half.
type Issuer struct {
	key                     *SigningKey
	name                    string
	accessTokenExpire       time.Duration
	refreshTokenExpire      time.Duration
	maxRefreshTokenLifetime time.Duration
	clock                   func() time.Time
}

// IssuerOption configures an Issuer
type IssuerOption func(*Issuer) error

// WithAccessTokenExpire sets the access token lifetime
func WithAccessTokenExpire(d time.Duration) IssuerOption {
	return func(i *Issuer) error {
		if d <= 0 {
			return fmt.Errorf("access token lifetime must be positive, got %v", d)
		}
		i.accessTokenExpire = d
		return nil
	}
}

// WithRefreshTokenExpire sets the refresh token lifetime
func WithRefreshTokenExpire(d time.Duration) IssuerOption {
	return func(i *Issuer) error {
		if d <= 0 {
			return fmt.Errorf("refresh token lifetime must be positive, got %v", d)
		}
		i.refreshTokenExpire = d
		return nil
	}
}

// WithMaxRefreshTokenLifetime caps how long a chain of refresh tokens may live
func WithMaxRefreshTokenLifetime(d time.Duration) IssuerOption {
	return func(i *Issuer) error {
		if d <= 0 {
			return fmt.Errorf("max refresh token lifetime must be positive, got %v", d)
		}
		i.maxRefreshTokenLifetime = d
		return nil
	}
}

// WithIssuerName sets the iss claim of issued tokens
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) error {
		i.name = name
		return nil
	}
}

// withIssuerClock overrides time.Now for tests
func withIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) error {
		i.clock = now
		return nil
	}
}

// NewIssuer creates an Issuer around key, which must be able to sign
func NewIssuer(key *SigningKey, opts ...IssuerOption) (*Issuer, error) {
	if !key.CanSign() {
		return nil, NewValidationError(ErrKeyUnavailable, "issuer requires a private signing key", nil)
	}

	i := &Issuer{
		key:                     key,
		accessTokenExpire:       DefaultAccessTokenExpire,
		refreshTokenExpire:      DefaultRefreshTokenExpire,
		maxRefreshTokenLifetime: DefaultMaxRefreshTokenLifetime,
		clock:                   time.Now,
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, NewValidationError(ErrConfigError, fmt.Sprintf("configuration error: %v", err), err)
		}
	}

	return i, nil
}

// IssueAccessToken mints a token for subject valid for the access token lifetime.
// custom may not carry the refresh token claims.
func (i *Issuer) IssueAccessToken(subject string, userID int64, roles []string, custom map[string]any) (*Token, error) {
	for _, name := range []string{ClaimSessionStart, ClaimTokenUse} {
		if _, ok := custom[name]; ok {
			return nil, NewValidationError(ErrMalformed,
				fmt.Sprintf("custom claim %q is reserved for refresh tokens", name), nil)
		}
	}

	now := i.clock()
	return Issue(ClaimSet{
		Subject:   subject,
		Issuer:    i.name,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.accessTokenExpire),
		ID:        uuid.New().String(),
		UserID:    userID,
		Roles:     roles,
		Custom:    custom,
	}, i.key)
}

// IssueRefreshToken mints a refresh token. Its expiry is the refresh token lifetime,
// but never later than sessionStart plus the maximum refresh token lifetime.
// A zero sessionStart starts a new session now.
func (i *Issuer) IssueRefreshToken(subject string, userID int64, roles []string, sessionStart time.Time) (*Token, error) {
	now := i.clock()
	if sessionStart.IsZero() {
		sessionStart = now
	}

	expires := now.Add(i.refreshTokenExpire)
	if limit := sessionStart.Add(i.maxRefreshTokenLifetime); expires.After(limit) {
		expires = limit
	}
	if !expires.After(now) {
		return nil, NewValidationError(ErrExpired, "maximum refresh token lifetime exceeded", nil)
	}

	return Issue(ClaimSet{
		Subject:   subject,
		Issuer:    i.name,
		IssuedAt:  now,
		ExpiresAt: expires,
		ID:        uuid.New().String(),
		UserID:    userID,
		Roles:     roles,
		Custom: map[string]any{
			ClaimSessionStart: sessionStart.Unix(),
			ClaimTokenUse:     TokenUseRefresh,
		},
	}, i.key)
}

// Refresh exchanges a valid refresh token for a new access and refresh token pair.
// The session start is carried over, so a chain of refreshes ends at the maximum
// refresh token lifetime.
func (i *Issuer) Refresh(refreshToken string) (access, refresh *Token, err error) {
	res := Check(refreshToken, i.key, i.clock(), 0)
	if !res.Valid() {
		return nil, nil, res.Err
	}

	if !IsRefreshToken(res.Claims) {
		return nil, nil, NewValidationError(ErrWrongTokenUse, "not a refresh token", nil)
	}
	start, ok := SessionStart(res.Claims)
	if !ok {
		return nil, nil, NewValidationError(ErrMalformed, "refresh token has no session start", nil)
	}

	access, err = i.IssueAccessToken(res.Claims.Subject, res.Claims.UserID, res.Claims.Roles, nil)
	if err != nil {
		return nil, nil, err
	}
	refresh, err = i.IssueRefreshToken(res.Claims.Subject, res.Claims.UserID, res.Claims.Roles, start)
	if err != nil {
		return nil, nil, err
	}
	return access, refresh, nil
}

// SessionStart reads the session start claim of a refresh token
func SessionStart(c *ClaimSet) (time.Time, bool) {
	v, ok := c.Custom[ClaimSessionStart]
	if !ok {
		return time.Time{}, false
	}
	n, err := toInt64(v)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(n, 0).UTC(), true
}

// IsRefreshToken reports whether c belongs to a refresh token. Either refresh
// claim is enough, so a token carrying only one of them is still kept away from
// resources.
func IsRefreshToken(c *ClaimSet) bool {
	if c == nil {
		return false
	}
	if _, ok := c.Custom[ClaimSessionStart]; ok {
		return true
	}
	use, _ := c.Custom[ClaimTokenUse].(string)
	return use == TokenUseRefresh
}

// Issue signs arbitrary claims with the issuer's key
func (i *Issuer) Issue(claims ClaimSet) (*Token, error) {
	return Issue(claims, i.key)
}

// Verify checks token against the issuer's key
func (i *Issuer) Verify(token *Token) (*ClaimSet, error) {
	return Verify(token, i.key)
}

// VerificationKey returns the public half of the signing key
func (i *Issuer) VerificationKey() *SigningKey {
	return i.key.VerificationKey()
}

// KeyID returns the kid stamped on issued tokens
func (i *Issuer) KeyID() string {
	return i.key.ID()
}

func (i *Issuer) AccessTokenExpire() time.Duration {
	return i.accessTokenExpire
}

func (i *Issuer) RefreshTokenExpire() time.Duration {
	return i.refreshTokenExpire
}

func (i *Issuer) MaxRefreshTokenLifetime() time.Duration {
	return i.maxRefreshTokenLifetime
}
