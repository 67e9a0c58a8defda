package jwtauth

import (
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

// ParseBearer extracts the token from an "Authorization: Bearer <token>" value
func ParseBearer(authHeader string) (string, error) {
	if authHeader == "" {
		return "", NewValidationError(ErrMissingToken, "authorization header not found", nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", NewValidationError(ErrMalformed, "invalid authorization header format, expected 'Bearer <token>'", nil)
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", NewValidationError(ErrMissingToken, "token is empty", nil)
	}

	return token, nil
}

// extractTokenFromCookie extracts the token from a cookie
func extractTokenFromCookie(r *http.Request, cookieName string) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", NewValidationError(ErrMissingToken, "cookie not found", err)
	}

	token := strings.TrimSpace(cookie.Value)
	if token == "" {
		return "", NewValidationError(ErrMissingToken, "cookie value is empty", nil)
	}

	return token, nil
}

// extractToken checks the Authorization header first, then the cookie if configured
func extractToken(r *http.Request, cfg *Config) (string, error) {
	token, err := ParseBearer(r.Header.Get("Authorization"))
	if err == nil {
		return token, nil
	}

	if cfg.CookieName() != "" {
		token, cookieErr := extractTokenFromCookie(r, cfg.CookieName())
		if cookieErr == nil {
			return token, nil
		}
	}

	return "", err
}

// extractTokenFromMetadata extracts the token from gRPC metadata
func extractTokenFromMetadata(md metadata.MD) (string, error) {
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", NewValidationError(ErrMissingToken, "authorization metadata not found", nil)
	}
	return ParseBearer(values[0])
}
