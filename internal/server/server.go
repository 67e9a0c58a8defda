// Package server exposes the credential hasher and token issuer over HTTP.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/Wang-tianhao/vibrant-credentials-go/credhash"
	"github.com/Wang-tianhao/vibrant-credentials-go/jwtauth"
)

// Demonstration identity used by GET /token
const (
	DemoSubject = "User@example.com"
	DemoUserID  = 1
	DemoRole    = "Admin"
)

// Server holds the immutable dependencies of the HTTP handlers
type Server struct {
	hasher       *credhash.Hasher
	issuer       *jwtauth.Issuer
	authConfig   *jwtauth.Config
	jwks         jwk.Set
	demoPassword []byte
	clockSkew    time.Duration
	logger       *slog.Logger
	clock        func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger for request and security events
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDemoPassword sets the password hashed by GET /hash
func WithDemoPassword(password string) Option {
	return func(s *Server) {
		s.demoPassword = []byte(password)
	}
}

// WithClockSkew sets the leeway used when checking exp and nbf
func WithClockSkew(skew time.Duration) Option {
	return func(s *Server) {
		s.clockSkew = skew
	}
}

// New wires the handlers around hasher and issuer
func New(hasher *credhash.Hasher, issuer *jwtauth.Issuer, opts ...Option) (*Server, error) {
	if hasher == nil || issuer == nil {
		return nil, fmt.Errorf("server requires a hasher and an issuer")
	}

	s := &Server{
		hasher:       hasher,
		issuer:       issuer,
		demoPassword: []byte("SuperSecretPassword"),
		clockSkew:    60 * time.Second,
		logger:       slog.Default(),
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	authConfig, err := jwtauth.NewConfig(
		jwtauth.WithVerificationKey(issuer.VerificationKey()),
		jwtauth.WithClockSkew(s.clockSkew),
		jwtauth.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	s.authConfig = authConfig

	jwks, err := jwtauth.PublicJWKS(issuer.VerificationKey())
	if err != nil {
		return nil, fmt.Errorf("build JWKS: %w", err)
	}
	s.jwks = jwks

	return s, nil
}

// AuthConfig returns the verifier configuration shared with the gRPC interceptor
func (s *Server) AuthConfig() *jwtauth.Config {
	return s.authConfig
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	router.GET("/health", s.health)
	router.GET("/.well-known/jwks.json", s.publishJWKS)

	router.GET("/hash", s.hashDemo)
	router.POST("/hash", s.hashPassword)
	router.POST("/hash/verify", s.verifyPassword)

	router.GET("/token", s.tokenDemo)
	router.POST("/token", s.issueToken)
	router.POST("/token/verify", s.verifyToken)
	router.POST("/token/refresh", s.refreshToken)

	api := router.Group("/api")
	api.Use(jwtauth.JWTAuth(s.authConfig))
	api.GET("/me", s.me)
	api.GET("/admin", jwtauth.RequireRole(DemoRole), s.admin)

	return router
}

// requestLogger logs one line per request. Bodies are never logged.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.Writer.Header().Get(jwtauth.RequestIDHeader)),
		)
	}
}
