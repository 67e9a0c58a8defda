package main

import (
	"crypto/elliptic"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Wang-tianhao/vibrant-credentials-go/jwtauth"
)

func main() {
	var (
		genKey  = flag.Bool("genkey", false, "Generate a new EC signing key and write it to -key")
		keyFile = flag.String("key", "ec-key.json", "Signing key file (JWK JSON or PEM)")
		kid     = flag.String("kid", "", "Key ID for -genkey (defaults to the JWK thumbprint)")
		curve   = flag.String("curve", "P-256", "Curve for -genkey: P-256, P-384 or P-521")
		subject = flag.String("sub", "User@example.com", "Subject")
		userID  = flag.Int64("id", 1, "Numeric user id (id claim)")
		roles   = flag.String("roles", "Admin", "Comma-separated roles")
		ttl     = flag.Duration("ttl", 24*time.Hour, "Token validity")
	)

	flag.Parse()

	if *genKey {
		generateKey(*keyFile, *kid, *curve)
		return
	}

	key, err := jwtauth.FileKeyProvider{}.Load(*keyFile)
	if err != nil {
		log.Fatalf("Failed to load key: %v", err)
	}

	issuer, err := jwtauth.NewIssuer(key, jwtauth.WithAccessTokenExpire(*ttl))
	if err != nil {
		log.Fatalf("Failed to create issuer: %v", err)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := issuer.IssueAccessToken(*subject, *userID, roleList, nil)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println("\n=== JWT Token Generated ===")
	fmt.Printf("\nToken: %s\n\n", token.Serialize())
	fmt.Println("Header:")
	fmt.Printf("  alg: %s\n", token.Header.Algorithm)
	fmt.Printf("  kid: %s\n", token.Header.KeyID)
	fmt.Println("Claims:")
	fmt.Printf("  Subject: %s\n", token.Claims.Subject)
	fmt.Printf("  ID:      %d\n", token.Claims.UserID)
	fmt.Printf("  Roles:   %s\n", strings.Join(token.Claims.Roles, ", "))
	fmt.Printf("  Expires: %s\n\n", token.Claims.ExpiresAt.Format(time.RFC3339))
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/api/me\n\n", token.Serialize())
}

func generateKey(path, kid, curveName string) {
	var curve elliptic.Curve
	switch curveName {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		log.Fatalf("Unsupported curve %q", curveName)
	}

	key, err := jwtauth.GenerateSigningKey(kid, curve)
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	if err := jwtauth.WriteKeyFile(path, key); err != nil {
		log.Fatalf("Failed to write key: %v", err)
	}

	// Re-read so the printed kid is the one FileKeyProvider will report
	loaded, err := jwtauth.FileKeyProvider{}.Load(path)
	if err != nil {
		log.Fatalf("Failed to read back key: %v", err)
	}
	fmt.Printf("Wrote %s key %s to %s\n", loaded.Algorithm(), loaded.ID(), path)
}
