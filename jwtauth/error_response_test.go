package jwtauth

import (
	"errors"
	"testing"
)

// TestBuildErrorResponse_MessageField tests that buildErrorResponse includes message field for specific errors
func TestBuildErrorResponse_MessageField(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectMessage   bool
		expectedMessage string
	}{
		{
			name: "UNSUPPORTED_ALGORITHM includes message with expected algorithm",
			err: NewValidationError(
				ErrUnsupportedAlgorithm,
				"algorithm ES384 not supported (expected: ES256)",
				nil,
			),
			expectMessage:   true,
			expectedMessage: "algorithm ES384 not supported (expected: ES256)",
		},
		{
			name:            "KEY_UNAVAILABLE includes message",
			err:             NewValidationError(ErrKeyUnavailable, "unknown key id old-key", nil),
			expectMessage:   true,
			expectedMessage: "unknown key id old-key",
		},
		{
			name:          "INVALID_SIGNATURE does not include message",
			err:           NewValidationError(ErrInvalidSignature, "invalid signature", nil),
			expectMessage: false,
		},
		{
			name:          "EXPIRED does not include message",
			err:           NewValidationError(ErrExpired, "token expired at 2026-01-01", nil),
			expectMessage: false,
		},
		{
			name:          "MALFORMED does not include message",
			err:           NewValidationError(ErrMalformed, "malformed token", nil),
			expectMessage: false,
		},
		{
			name:          "plain error",
			err:           errors.New("boom"),
			expectMessage: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := buildErrorResponse(tt.err)

			message, hasMessage := response["message"]
			if hasMessage != tt.expectMessage {
				t.Fatalf("Expected message present = %v, got %v (%v)", tt.expectMessage, hasMessage, response)
			}
			if tt.expectMessage && message != tt.expectedMessage {
				t.Errorf("Expected message %q, got %q", tt.expectedMessage, message)
			}
		})
	}
}

// TestBuildErrorResponse_Format tests the overall response format
func TestBuildErrorResponse_Format(t *testing.T) {
	response := buildErrorResponse(NewValidationError(ErrExpired, "token expired", nil))

	if response["error"] != "unauthorized" {
		t.Errorf("Missing or incorrect 'error' field")
	}
	if response["reason"] != "EXPIRED" {
		t.Errorf("Missing or incorrect 'reason' field")
	}

	response = buildErrorResponse(errors.New("boom"))
	if response["reason"] != "UNKNOWN" {
		t.Errorf("Expected UNKNOWN reason for untyped errors, got %v", response["reason"])
	}
}

// TestErrorCodeSeparation_UnitLevel verifies error codes are distinct
func TestErrorCodeSeparation_UnitLevel(t *testing.T) {
	codes := []ErrorCode{
		ErrAlgorithmUnavailable,
		ErrKeyUnavailable,
		ErrExpired,
		ErrInvalidSignature,
		ErrMissingToken,
		ErrMalformed,
		ErrNoneAlgorithm,
		ErrConfigError,
		ErrUnsupportedAlgorithm,
		ErrNotYetValid,
		ErrWrongTokenUse,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		got := getErrorCode(NewValidationError(code, "test", nil))
		if got != string(code) {
			t.Errorf("Expected code=%s, got code=%s", code, got)
		}
		if seen[got] {
			t.Errorf("Error code collision: %s", got)
		}
		seen[got] = true
	}
}

// TestValidationErrorUnwrap tests errors.Is through the Internal field
func TestValidationErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewValidationError(ErrMalformed, "malformed token", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the internal cause")
	}
	if err.Error() != "[MALFORMED] malformed token" {
		t.Errorf("Unexpected error string %q", err.Error())
	}
	if CodeOf(nil) != "" {
		t.Error("Expected empty code for nil error")
	}
}
