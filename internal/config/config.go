// Package config handles configuration for the server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Wang-tianhao/vibrant-credentials-go/credhash"
)

// Config holds runtime settings for the credentials server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses for the REST and gRPC endpoints.
//   - KeyFile: EC signing key, JWK JSON or PEM. It must exist unless EphemeralKey is set.
//   - KeyID: kid of an ephemeral or PEM key. JWK files keep their own kid.
//   - EphemeralKey: generate a throwaway P-256 key instead of reading KeyFile.
//   - AccessTokenExpire / RefreshTokenExpire / MaxRefreshTokenLifetime: token lifetimes.
//   - ClockSkew: leeway applied to exp and nbf.
//   - HashAlgorithm / Iterations / OutputBits / SaltLength: PBKDF2 parameters.
//   - DemoPassword: password hashed by GET /hash. Never logged.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	HTTPAddr                string
	GRPCAddr                string
	KeyFile                 string
	KeyID                   string
	EphemeralKey            bool
	Issuer                  string
	AccessTokenExpire       time.Duration
	RefreshTokenExpire      time.Duration
	MaxRefreshTokenLifetime time.Duration
	ClockSkew               time.Duration
	HashAlgorithm           string
	Iterations              int
	OutputBits              int
	SaltLength              int
	DemoPassword            string
	LogLevel                string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.KeyFile = "ec-key.json"
	c.KeyID = "dev-key"
	c.Issuer = ""
	c.AccessTokenExpire = 24 * time.Hour
	c.RefreshTokenExpire = 24 * time.Hour
	c.MaxRefreshTokenLifetime = 24 * time.Hour
	c.ClockSkew = 60 * time.Second
	c.HashAlgorithm = string(credhash.PBKDF2WithHmacSHA512)
	c.Iterations = credhash.DefaultIterations
	c.OutputBits = credhash.DefaultOutputBits
	c.SaltLength = credhash.DefaultSaltLength
	c.DemoPassword = "SuperSecretPassword"
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file (-config) and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the hasher or issuer would refuse later.
func (c *Config) Validate() error {
	if _, err := c.Hasher(); err != nil {
		return fmt.Errorf("invalid hashing parameters: %w", err)
	}
	if c.KeyFile == "" && !c.EphemeralKey {
		return fmt.Errorf("key file is required unless an ephemeral key is requested")
	}
	if c.AccessTokenExpire <= 0 || c.RefreshTokenExpire <= 0 || c.MaxRefreshTokenLifetime <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.ClockSkew < 0 {
		return fmt.Errorf("clock skew must be non-negative, got %v", c.ClockSkew)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Hasher builds the credential hasher described by the PBKDF2 fields.
func (c *Config) Hasher() (*credhash.Hasher, error) {
	return credhash.NewHasher(
		credhash.WithAlgorithm(credhash.Algorithm(c.HashAlgorithm)),
		credhash.WithIterations(c.Iterations),
		credhash.WithOutputBits(c.OutputBits),
		credhash.WithSaltLength(c.SaltLength),
	)
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
