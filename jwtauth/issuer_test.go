package jwtauth

import (
	"reflect"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestNewIssuer covers construction and lifetime options
func TestNewIssuer(t *testing.T) {
	key := newTestKey(t, "issuer")

	tests := []struct {
		name     string
		key      *SigningKey
		opts     []IssuerOption
		wantCode ErrorCode
	}{
		{"defaults", key, nil, ""},
		{"custom lifetimes", key, []IssuerOption{
			WithAccessTokenExpire(time.Hour),
			WithRefreshTokenExpire(2 * time.Hour),
			WithMaxRefreshTokenLifetime(48 * time.Hour),
		}, ""},
		{"nil key", nil, nil, ErrKeyUnavailable},
		{"public-only key", key.VerificationKey(), nil, ErrKeyUnavailable},
		{"zero access lifetime", key, []IssuerOption{WithAccessTokenExpire(0)}, ErrConfigError},
		{"negative refresh lifetime", key, []IssuerOption{WithRefreshTokenExpire(-time.Second)}, ErrConfigError},
		{"zero max refresh lifetime", key, []IssuerOption{WithMaxRefreshTokenLifetime(0)}, ErrConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIssuer(tt.key, tt.opts...)
			if CodeOf(err) != tt.wantCode {
				t.Errorf("Expected %q, got %v", tt.wantCode, err)
			}
		})
	}
}

// TestIssueAccessToken checks claims stamped by the issuer
func TestIssueAccessToken(t *testing.T) {
	key := newTestKey(t, "issuer")
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	issuer, err := NewIssuer(key,
		WithAccessTokenExpire(time.Hour),
		WithIssuerName("https://auth.example.com"),
		withIssuerClock(fixedClock(now)),
	)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	tok, err := issuer.IssueAccessToken("User@example.com", 1, []string{"Admin"}, map[string]any{"tenant": "demo"})
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.Subject != "User@example.com" || claims.UserID != 1 {
		t.Errorf("Unexpected identity claims: %+v", claims)
	}
	if !reflect.DeepEqual(claims.Roles, []string{"Admin"}) {
		t.Errorf("Unexpected roles: %v", claims.Roles)
	}
	if claims.Issuer != "https://auth.example.com" {
		t.Errorf("Unexpected issuer %q", claims.Issuer)
	}
	if !claims.IssuedAt.Equal(now) {
		t.Errorf("Expected iat %v, got %v", now, claims.IssuedAt)
	}
	if !claims.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("Expected exp %v, got %v", now.Add(time.Hour), claims.ExpiresAt)
	}
	if claims.ID == "" {
		t.Error("Expected jti")
	}
	if claims.Custom["tenant"] != "demo" {
		t.Errorf("Expected custom tenant claim, got %v", claims.Custom)
	}
	if tok.Header.KeyID != issuer.KeyID() {
		t.Errorf("Expected kid %s, got %s", issuer.KeyID(), tok.Header.KeyID)
	}

	if IsRefreshToken(&tok.Claims) {
		t.Error("Access token must not look like a refresh token")
	}
	for _, reserved := range []string{ClaimSessionStart, ClaimTokenUse} {
		_, err := issuer.IssueAccessToken("User@example.com", 1, nil, map[string]any{reserved: "x"})
		if CodeOf(err) != ErrMalformed {
			t.Errorf("Expected %s for reserved claim %s, got %v", ErrMalformed, reserved, err)
		}
	}

	other, err := issuer.IssueAccessToken("User@example.com", 1, nil, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	if other.Claims.ID == tok.Claims.ID {
		t.Error("Expected a fresh jti per token")
	}
}

// TestIssueRefreshToken checks the maximum refresh lifetime cap
func TestIssueRefreshToken(t *testing.T) {
	key := newTestKey(t, "issuer")
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	issuer, err := NewIssuer(key,
		WithRefreshTokenExpire(24*time.Hour),
		WithMaxRefreshTokenLifetime(36*time.Hour),
		withIssuerClock(fixedClock(now)),
	)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	tests := []struct {
		name         string
		sessionStart time.Time
		wantExpires  time.Time
		wantCode     ErrorCode
	}{
		{"new session", time.Time{}, now.Add(24 * time.Hour), ""},
		{"young session", now.Add(-time.Hour), now.Add(24 * time.Hour), ""},
		{"capped by max lifetime", now.Add(-30 * time.Hour), now.Add(6 * time.Hour), ""},
		{"past max lifetime", now.Add(-36 * time.Hour), time.Time{}, ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := issuer.IssueRefreshToken("user", 7, []string{"Admin"}, tt.sessionStart)
			if tt.wantCode != "" {
				if CodeOf(err) != tt.wantCode {
					t.Fatalf("Expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("IssueRefreshToken failed: %v", err)
			}
			if !tok.Claims.ExpiresAt.Equal(tt.wantExpires) {
				t.Errorf("Expected exp %v, got %v", tt.wantExpires, tok.Claims.ExpiresAt)
			}
			if !IsRefreshToken(&tok.Claims) {
				t.Errorf("Expected refresh token claims, got %v", tok.Claims.Custom)
			}
			start, ok := SessionStart(&tok.Claims)
			if !ok {
				t.Fatal("Expected session start claim")
			}
			if tt.sessionStart.IsZero() {
				if !start.Equal(now) {
					t.Errorf("Expected new session to start now, got %v", start)
				}
			} else if !start.Equal(tt.sessionStart) {
				t.Errorf("Expected session start %v, got %v", tt.sessionStart, start)
			}
		})
	}
}

// TestIssuerVerificationKey checks the exported key cannot sign but verifies issued tokens
func TestIssuerVerificationKey(t *testing.T) {
	issuer, err := NewIssuer(newTestKey(t, "issuer"))
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	if issuer.AccessTokenExpire() != DefaultAccessTokenExpire ||
		issuer.RefreshTokenExpire() != DefaultRefreshTokenExpire ||
		issuer.MaxRefreshTokenLifetime() != DefaultMaxRefreshTokenLifetime {
		t.Error("Unexpected default lifetimes")
	}

	pub := issuer.VerificationKey()
	if pub.CanSign() {
		t.Fatal("VerificationKey must not sign")
	}

	tok, err := issuer.Issue(ClaimSet{Subject: "user"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := Verify(tok, pub); err != nil {
		t.Errorf("Verify with public key failed: %v", err)
	}
}

// TestRefresh tests exchanging refresh tokens up to the maximum lifetime
func TestRefresh(t *testing.T) {
	key := newTestKey(t, "issuer")
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	now := start

	issuer, err := NewIssuer(key,
		WithAccessTokenExpire(time.Hour),
		WithRefreshTokenExpire(10*time.Hour),
		WithMaxRefreshTokenLifetime(15*time.Hour),
		withIssuerClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	first, err := issuer.IssueRefreshToken("user", 7, []string{"Admin"}, time.Time{})
	if err != nil {
		t.Fatalf("IssueRefreshToken failed: %v", err)
	}

	now = start.Add(8 * time.Hour)
	access, second, err := issuer.Refresh(first.Serialize())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if access.Claims.Subject != "user" || access.Claims.UserID != 7 || !access.Claims.HasRole("Admin") {
		t.Errorf("Refreshed access token lost identity claims: %+v", access.Claims)
	}
	if !second.Claims.ExpiresAt.Equal(start.Add(15 * time.Hour)) {
		t.Errorf("Expected refresh capped at session start + 15h, got %v", second.Claims.ExpiresAt)
	}

	// An access token is not a refresh token
	if _, _, err := issuer.Refresh(access.Serialize()); CodeOf(err) != ErrWrongTokenUse {
		t.Errorf("Expected %s for access token, got %v", ErrWrongTokenUse, err)
	}

	now = start.Add(16 * time.Hour)
	if _, _, err := issuer.Refresh(second.Serialize()); CodeOf(err) != ErrExpired {
		t.Errorf("Expected %s after max lifetime, got %v", ErrExpired, err)
	}

	// Tokens from another key are rejected
	other, err := NewIssuer(newTestKey(t, "issuer"), withIssuerClock(func() time.Time { return start }))
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	foreign, err := other.IssueRefreshToken("user", 7, nil, time.Time{})
	if err != nil {
		t.Fatalf("IssueRefreshToken failed: %v", err)
	}
	now = start
	if _, _, err := issuer.Refresh(foreign.Serialize()); CodeOf(err) != ErrInvalidSignature {
		t.Errorf("Expected %s for foreign token, got %v", ErrInvalidSignature, err)
	}
}
