package main

import (
	"context"
	"crypto/elliptic"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wang-tianhao/vibrant-credentials-go/internal/config"
	"github.com/Wang-tianhao/vibrant-credentials-go/internal/server"
	"github.com/Wang-tianhao/vibrant-credentials-go/jwtauth"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	key, err := loadKey(cfg, logger)
	if err != nil {
		return err
	}

	issuer, err := jwtauth.NewIssuer(key,
		jwtauth.WithAccessTokenExpire(cfg.AccessTokenExpire),
		jwtauth.WithRefreshTokenExpire(cfg.RefreshTokenExpire),
		jwtauth.WithMaxRefreshTokenLifetime(cfg.MaxRefreshTokenLifetime),
		jwtauth.WithIssuerName(cfg.Issuer),
	)
	if err != nil {
		return err
	}

	hasher, err := cfg.Hasher()
	if err != nil {
		return err
	}

	srv, err := server.New(hasher, issuer,
		server.WithLogger(logger),
		server.WithDemoPassword(cfg.DemoPassword),
		server.WithClockSkew(cfg.ClockSkew),
	)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, health, err := srv.GRPCServer()
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "kid", issuer.KeyID(), "alg", key.Algorithm())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("grpc server starting", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	return httpServer.Shutdown(shutdownCtx)
}

// loadKey reads the configured key file. A missing or unreadable file is fatal;
// an ephemeral key is only generated when explicitly requested.
func loadKey(cfg *config.Config, logger *slog.Logger) (*jwtauth.SigningKey, error) {
	if cfg.EphemeralKey {
		logger.Warn("generating an ephemeral signing key, issued tokens stop verifying on restart", "kid", cfg.KeyID)
		return jwtauth.GenerateSigningKey(cfg.KeyID, elliptic.P256())
	}

	provider := jwtauth.FileKeyProvider{Dir: filepath.Dir(cfg.KeyFile), PEMKeyID: cfg.KeyID}
	key, err := provider.Load(filepath.Base(cfg.KeyFile))
	if err != nil {
		return nil, err
	}
	if !key.CanSign() {
		return nil, jwtauth.NewValidationError(jwtauth.ErrKeyUnavailable, "key file holds no private key", nil)
	}
	logger.Info("signing key loaded", "file", cfg.KeyFile, "kid", key.ID())
	return key, nil
}
