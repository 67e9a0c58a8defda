package jwtauth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation ID in and out of HTTP requests
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client supplied correlation IDs
const maxRequestIDLength = 128

// requestIDFrom returns the client's correlation ID when it is short and made of
// [A-Za-z0-9._-], and a fresh UUID otherwise. The ID is echoed and logged.
func requestIDFrom(header string) string {
	if header == "" || len(header) > maxRequestIDLength {
		return uuid.New().String()
	}
	for _, r := range header {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return uuid.New().String()
		}
	}
	return header
}

// JWTAuth returns a Gin middleware handler that admits requests carrying a token
// signed by one of the configured keys and not yet expired
func JWTAuth(cfg *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := requestIDFrom(c.GetHeader(RequestIDHeader))
		c.Header(RequestIDHeader, requestID)

		token, err := extractToken(c.Request, cfg)
		if err != nil {
			logSecurityEvent(cfg.Logger(), newSecurityEvent("http", requestID, token, nil, err, time.Since(startTime)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, buildErrorResponse(err))
			return
		}

		claims, err := parseAndValidateJWT(token, cfg)
		if err != nil {
			logSecurityEvent(cfg.Logger(), newSecurityEvent("http", requestID, token, nil, err, time.Since(startTime)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, buildErrorResponse(err))
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		ctx = WithRequestID(ctx, requestID)
		c.Request = c.Request.WithContext(ctx)

		logSecurityEvent(cfg.Logger(), newSecurityEvent("http", requestID, token, claims, nil, time.Since(startTime)))

		c.Next()
	}
}

// RequireRole returns a Gin handler that rejects requests whose claims lack role.
// It must run after JWTAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "reason": string(ErrMissingToken)})
			return
		}
		if !claims.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": role + " role required"})
			return
		}
		c.Next()
	}
}

// buildErrorResponse constructs the 401 body. Algorithm and key errors carry a message
// to help clients fix their configuration; signature and expiry errors do not.
func buildErrorResponse(err error) gin.H {
	response := gin.H{
		"error":  "unauthorized",
		"reason": getErrorCode(err),
	}

	if valErr, ok := err.(*ValidationError); ok {
		if valErr.Code == ErrUnsupportedAlgorithm || valErr.Code == ErrKeyUnavailable {
			if valErr.Message != "" {
				response["message"] = valErr.Message
			}
		}
	}

	return response
}
