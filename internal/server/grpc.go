package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Wang-tianhao/vibrant-credentials-go/jwtauth"
)

// GRPCServer builds a gRPC server whose unary calls are authenticated with the
// issuer's verification key. The standard health service is registered and public.
func (s *Server) GRPCServer() (*grpc.Server, *health.Server, error) {
	cfg, err := jwtauth.NewConfig(
		jwtauth.WithVerificationKey(s.issuer.VerificationKey()),
		jwtauth.WithClockSkew(s.clockSkew),
		jwtauth.WithLogger(s.logger),
		jwtauth.WithPublicMethods(healthpb.Health_Check_FullMethodName),
	)
	if err != nil {
		return nil, nil, err
	}

	srv := grpc.NewServer(
		grpc.UnaryInterceptor(jwtauth.UnaryServerInterceptor(cfg)),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs, nil
}
