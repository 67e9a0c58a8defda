package jwtauth

import "context"

// contextKey is an unexported type for context keys to prevent collisions
type contextKey string

const (
	claimsContextKey    contextKey = "github.com/Wang-tianhao/vibrant-credentials-go/jwtauth:claims"
	requestIDContextKey contextKey = "github.com/Wang-tianhao/vibrant-credentials-go/jwtauth:request_id"
)

// WithClaims stores verified claims in the request context.
// Claims are immutable and should not be modified by downstream handlers.
func WithClaims(ctx context.Context, claims *ClaimSet) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// GetClaims retrieves verified claims from the request context.
// Returns nil, false if claims are not present.
func GetClaims(ctx context.Context) (*ClaimSet, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*ClaimSet)
	return claims, ok
}

// MustGetClaims retrieves claims from context and panics if not present.
// Use only behind the middleware or interceptor.
func MustGetClaims(ctx context.Context) *ClaimSet {
	claims, ok := GetClaims(ctx)
	if !ok {
		panic("jwtauth: claims not found in context")
	}
	return claims
}

// WithRequestID stores a request ID in context for correlation
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}
