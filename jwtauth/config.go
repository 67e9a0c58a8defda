package jwtauth

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Config holds immutable configuration for token verification in the middleware
type Config struct {
	keys            map[string]*SigningKey // kid -> verification key
	clockSkewLeeway time.Duration
	cookieName      string
	requiredClaims  []string
	publicMethods   map[string]bool
	logger          *slog.Logger
	clock           func() time.Time
}

// ConfigOption is a functional option for configuring the middleware
type ConfigOption func(*Config) error

// NewConfig creates a new immutable configuration with the given options
func NewConfig(opts ...ConfigOption) (*Config, error) {
	cfg := &Config{
		keys:            make(map[string]*SigningKey),
		clockSkewLeeway: 60 * time.Second, // Default 60 seconds
		publicMethods:   make(map[string]bool),
		clock:           time.Now,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, NewValidationError(ErrConfigError, fmt.Sprintf("configuration error: %v", err), err)
		}
	}

	if len(cfg.keys) == 0 {
		return nil, NewValidationError(ErrConfigError, "at least one verification key must be configured (use WithVerificationKey)", nil)
	}

	return cfg, nil
}

// WithVerificationKey adds a key tokens may be verified against. Only the public
// component is retained.
func WithVerificationKey(key *SigningKey) ConfigOption {
	return func(c *Config) error {
		if key == nil || key.public == nil {
			return fmt.Errorf("verification key cannot be nil")
		}
		if _, exists := c.keys[key.ID()]; exists {
			return fmt.Errorf("duplicate key id %q", key.ID())
		}
		c.keys[key.ID()] = key.VerificationKey()
		return nil
	}
}

// WithClockSkew sets the clock skew tolerance for exp/nbf validation
func WithClockSkew(skew time.Duration) ConfigOption {
	return func(c *Config) error {
		if skew < 0 {
			return fmt.Errorf("clock skew must be non-negative, got %v", skew)
		}
		c.clockSkewLeeway = skew
		return nil
	}
}

// WithCookie enables token extraction from a cookie with the given name
func WithCookie(cookieName string) ConfigOption {
	return func(c *Config) error {
		c.cookieName = cookieName
		return nil
	}
}

// WithLogger sets a structured logger for security events
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) error {
		c.logger = logger
		return nil
	}
}

// WithRequiredClaims specifies claim names that must be present in the token
func WithRequiredClaims(claims ...string) ConfigOption {
	return func(c *Config) error {
		c.requiredClaims = append(c.requiredClaims, claims...)
		return nil
	}
}

// WithPublicMethods lists full gRPC method names the interceptor lets through unauthenticated
func WithPublicMethods(methods ...string) ConfigOption {
	return func(c *Config) error {
		for _, m := range methods {
			c.publicMethods[m] = true
		}
		return nil
	}
}

// withClock overrides time.Now for tests
func withClock(now func() time.Time) ConfigOption {
	return func(c *Config) error {
		c.clock = now
		return nil
	}
}

// KeyIDs returns a sorted list of configured key IDs
func (c *Config) KeyIDs() []string {
	ids := make([]string, 0, len(c.keys))
	for id := range c.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// keyFor selects the verification key named by the kid header. A token without kid
// is accepted only when exactly one key is configured.
func (c *Config) keyFor(header Header) (*SigningKey, error) {
	if header.KeyID == "" {
		if len(c.keys) == 1 {
			for _, k := range c.keys {
				return k, nil
			}
		}
		return nil, NewValidationError(ErrKeyUnavailable, "token has no kid and several keys are configured", nil)
	}

	key, ok := c.keys[header.KeyID]
	if !ok {
		return nil, NewValidationError(ErrKeyUnavailable, fmt.Sprintf("unknown key id %s", header.KeyID), nil)
	}
	return key, nil
}

func (c *Config) now() time.Time {
	return c.clock()
}

func (c *Config) ClockSkewLeeway() time.Duration {
	return c.clockSkewLeeway
}

func (c *Config) CookieName() string {
	return c.cookieName
}

func (c *Config) RequiredClaims() []string {
	return c.requiredClaims
}

func (c *Config) Logger() *slog.Logger {
	return c.logger
}

func (c *Config) isPublicMethod(fullMethod string) bool {
	return c.publicMethods[fullMethod]
}
