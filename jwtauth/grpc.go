package jwtauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor returns a gRPC unary server interceptor authenticating
// "authorization: Bearer <token>" metadata. Methods registered with WithPublicMethods pass through.
func UnaryServerInterceptor(cfg *Config) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if cfg.isPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		startTime := time.Now()
		requestID := uuid.New().String()

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			err := NewValidationError(ErrMissingToken, "metadata not found", nil)
			logSecurityEvent(cfg.Logger(), newSecurityEvent("grpc", requestID, "", nil, err, time.Since(startTime)))
			return nil, status.Error(codes.Unauthenticated, "metadata not found")
		}

		token, err := extractTokenFromMetadata(md)
		if err != nil {
			logSecurityEvent(cfg.Logger(), newSecurityEvent("grpc", requestID, token, nil, err, time.Since(startTime)))
			return nil, status.Error(codes.Unauthenticated, getErrorCode(err))
		}

		claims, err := parseAndValidateJWT(token, cfg)
		if err != nil {
			logSecurityEvent(cfg.Logger(), newSecurityEvent("grpc", requestID, token, nil, err, time.Since(startTime)))
			return nil, status.Error(codes.Unauthenticated, getErrorCode(err))
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithRequestID(ctx, requestID)

		logSecurityEvent(cfg.Logger(), newSecurityEvent("grpc", requestID, token, claims, nil, time.Since(startTime)))

		return handler(ctx, req)
	}
}
