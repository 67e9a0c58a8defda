package jwtauth

import (
	"crypto/elliptic"
	"testing"
	"time"
)

// BenchmarkKeyRouting measures kid lookup in a multi-key config
func BenchmarkKeyRouting(b *testing.B) {
	cfg, _ := NewConfig(
		WithVerificationKey(newTestKey(b, "a")),
		WithVerificationKey(newTestKey(b, "b")),
	)
	header := Header{Algorithm: "ES256", KeyID: "b"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = cfg.keyFor(header)
	}
}

// BenchmarkIssue measures signing per curve
func BenchmarkIssue(b *testing.B) {
	curves := []struct {
		name  string
		curve elliptic.Curve
	}{
		{"ES256", elliptic.P256()},
		{"ES384", elliptic.P384()},
		{"ES512", elliptic.P521()},
	}

	for _, c := range curves {
		b.Run(c.name, func(b *testing.B) {
			key, err := GenerateSigningKey("bench", c.curve)
			if err != nil {
				b.Fatalf("Failed to generate key: %v", err)
			}
			claims := ClaimSet{
				Subject:   "User@example.com",
				ExpiresAt: time.Now().Add(time.Hour),
				UserID:    1,
				Roles:     []string{"Admin"},
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				_, _ = Issue(claims, key)
			}
		})
	}
}

// BenchmarkCheck measures parse, verify and time validation of a token
func BenchmarkCheck(b *testing.B) {
	key := newTestKey(b, "bench")
	token := issueTestToken(b, key, "user123", time.Hour)
	now := time.Now()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = Check(token, key, now, time.Minute)
	}
}

// BenchmarkMiddlewareValidation measures the full validation path used by JWTAuth
func BenchmarkMiddlewareValidation(b *testing.B) {
	key := newTestKey(b, "bench")
	cfg, _ := NewConfig(WithVerificationKey(key))
	token := issueTestToken(b, key, "user123", time.Hour)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = parseAndValidateJWT(token, cfg)
	}
}

// BenchmarkValidationErrorCreation measures allocation overhead of error creation
func BenchmarkValidationErrorCreation(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = NewValidationError(ErrUnsupportedAlgorithm, "algorithm ES384 not supported (expected: ES256)", nil)
	}
}
