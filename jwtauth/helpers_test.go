package jwtauth

import (
	"crypto/elliptic"
	"testing"
	"time"
)

// newTestKey generates a P-256 signing key for tests
func newTestKey(t testing.TB, id string) *SigningKey {
	t.Helper()
	key, err := GenerateSigningKey(id, elliptic.P256())
	if err != nil {
		t.Fatalf("Failed to generate signing key: %v", err)
	}
	return key
}

// issueTestToken signs a token for subject expiring after ttl
func issueTestToken(t testing.TB, key *SigningKey, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok, err := Issue(ClaimSet{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		UserID:    1,
		Roles:     []string{"Admin"},
	}, key)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tok.Serialize()
}

// issueTestRefreshToken mints a refresh token for subject through an Issuer around key
func issueTestRefreshToken(t testing.TB, key *SigningKey, subject string) string {
	t.Helper()
	issuer, err := NewIssuer(key)
	if err != nil {
		t.Fatalf("Failed to create issuer: %v", err)
	}
	tok, err := issuer.IssueRefreshToken(subject, 1, []string{"Admin"}, time.Time{})
	if err != nil {
		t.Fatalf("Failed to issue refresh token: %v", err)
	}
	return tok.Serialize()
}
