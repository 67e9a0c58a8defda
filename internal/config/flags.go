package config

import (
	"flag"
	"io"
	"strings"
)

var serverFlags = []string{
	"-http", "-grpc", "-key", "-kid", "-ephemeral-key", "-issuer",
	"-access-ttl", "-refresh-ttl", "-max-refresh-ttl", "-skew",
	"-alg", "-iterations", "-bits", "-salt", "-log-level",
}

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-http string            HTTP bind address (e.g. ":8080")
//	-grpc string            gRPC bind address (e.g. ":50051")
//	-key string             signing key file, JWK JSON or PEM
//	-kid string             key id for an ephemeral or PEM key
//	-ephemeral-key          generate a throwaway signing key instead of reading -key
//	-issuer string          iss claim of issued tokens
//	-access-ttl duration    access token lifetime
//	-refresh-ttl duration   refresh token lifetime
//	-max-refresh-ttl dur    maximum refresh token lifetime
//	-skew duration          clock skew leeway for exp and nbf
//	-alg string             PBKDF2 algorithm identifier
//	-iterations int         PBKDF2 iteration count
//	-bits int               derived key length in bits
//	-salt int               salt length in bytes
//	-log-level string       debug, info, warn or error
//
// The demo password has no flag so it does not show up in process listings.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "http", config.HTTPAddr, "HTTP bind address")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC bind address")
	fs.StringVar(&config.KeyFile, "key", config.KeyFile, "signing key file")
	fs.StringVar(&config.KeyID, "kid", config.KeyID, "key id")
	fs.BoolVar(&config.EphemeralKey, "ephemeral-key", config.EphemeralKey, "generate a throwaway signing key")
	fs.StringVar(&config.Issuer, "issuer", config.Issuer, "token issuer")
	fs.DurationVar(&config.AccessTokenExpire, "access-ttl", config.AccessTokenExpire, "access token lifetime")
	fs.DurationVar(&config.RefreshTokenExpire, "refresh-ttl", config.RefreshTokenExpire, "refresh token lifetime")
	fs.DurationVar(&config.MaxRefreshTokenLifetime, "max-refresh-ttl", config.MaxRefreshTokenLifetime, "maximum refresh token lifetime")
	fs.DurationVar(&config.ClockSkew, "skew", config.ClockSkew, "clock skew leeway")
	fs.StringVar(&config.HashAlgorithm, "alg", config.HashAlgorithm, "PBKDF2 algorithm")
	fs.IntVar(&config.Iterations, "iterations", config.Iterations, "PBKDF2 iterations")
	fs.IntVar(&config.OutputBits, "bits", config.OutputBits, "derived key length in bits")
	fs.IntVar(&config.SaltLength, "salt", config.SaltLength, "salt length in bytes")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	return fs.Parse(filterArgs(args, serverFlags))
}

// filterArgs keeps only the allowed flags and their values, so flags owned by
// another parser (such as -config) do not make this one fail.
//
// Both "-flag value" and "-flag=value" forms are recognised; a leading "--" is
// treated like "-".
func filterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name := arg
		if strings.HasPrefix(name, "--") {
			name = name[1:]
		}

		if strings.HasPrefix(name, "-") && strings.Contains(name, "=") {
			if _, ok := allowed[strings.SplitN(name, "=", 2)[0]]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[name]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}
