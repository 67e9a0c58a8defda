package jwtauth

import (
	"log/slog"
	"time"
)

// SecurityEvent represents a structured security log entry
type SecurityEvent struct {
	EventType     string        // "success" or "failure"
	Timestamp     time.Time     // Event timestamp
	RequestID     string        // Correlation ID
	Transport     string        // "http" or "grpc"
	UserID        string        // Subject from claims (empty on failure)
	Algorithm     string        // Header algorithm (ES256, ...) or MALFORMED
	KeyID         string        // Header kid
	FailureReason string        // Error code (on failure)
	TokenPreview  string        // Redacted token preview
	Latency       time.Duration // Validation latency
}

// LogValue implements slog.LogValuer for structured logging with redaction
func (e SecurityEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("event", e.EventType),
		slog.Time("timestamp", e.Timestamp),
		slog.String("request_id", e.RequestID),
		slog.String("transport", e.Transport),
		slog.String("user_id", e.UserID),
		slog.String("algorithm", e.Algorithm),
		slog.String("kid", e.KeyID),
		slog.String("failure_reason", e.FailureReason),
		slog.String("token", redactToken(e.TokenPreview)),
		slog.Duration("latency", e.Latency),
	)
}

// redactToken keeps only the first 8 characters of a token
func redactToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}

// logSecurityEvent emits a security event via the configured logger
func logSecurityEvent(logger *slog.Logger, event SecurityEvent) {
	if logger == nil {
		return // Logging disabled
	}

	if event.EventType == "failure" {
		logger.Warn("authentication failed", "auth_event", event)
	} else {
		logger.Info("authentication succeeded", "auth_event", event)
	}
}

// newSecurityEvent fills the fields shared by the HTTP and gRPC paths
func newSecurityEvent(transport, requestID, token string, claims *ClaimSet, err error, latency time.Duration) SecurityEvent {
	alg, kid := peekHeader(token)
	event := SecurityEvent{
		EventType:    "success",
		Timestamp:    time.Now(),
		RequestID:    requestID,
		Transport:    transport,
		Algorithm:    alg,
		KeyID:        kid,
		TokenPreview: token,
		Latency:      latency,
	}
	if err != nil {
		event.EventType = "failure"
		event.FailureReason = getErrorCode(err)
	}
	if claims != nil {
		event.UserID = claims.Subject
	}
	return event
}

// peekHeader reads alg and kid from an unverified token for logging.
// Returns MALFORMED when the header cannot be decoded.
func peekHeader(token string) (alg, kid string) {
	if token == "" {
		return "", ""
	}
	parsed, err := Parse(token)
	if err != nil {
		return "MALFORMED", ""
	}
	return parsed.Header.Algorithm, parsed.Header.KeyID
}

// getErrorCode extracts the error code from a validation error
func getErrorCode(err error) string {
	if code := CodeOf(err); code != "" {
		return string(code)
	}
	return "UNKNOWN"
}
