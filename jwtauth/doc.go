/*
Package jwtauth issues and verifies elliptic-curve signed JSON Web Tokens.

A SigningKey is loaded once, typically from a JWK file:

	key, err := jwtauth.FileKeyProvider{Dir: "."}.Load("ec-key.json")

Tokens are issued from a plain ClaimSet and serialized to the compact form:

	tok, err := jwtauth.Issue(jwtauth.ClaimSet{
		Subject:   "User@example.com",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		UserID:    1,
		Roles:     []string{"Admin"},
	}, key)
	s := tok.Serialize()

Verify only checks the signature. Expiration is a separate decision:

	parsed, _ := jwtauth.Parse(s)
	claims, err := jwtauth.Verify(parsed, key)
	if err == nil && claims.ExpiredAt(time.Now(), 0) { ... }

Check combines both and returns a Result whose Status tells a tampered token
(StatusInvalidSignature), an undecodable one (StatusMalformed) and an expired one
(StatusExpired) apart.

JWTAuth and UnaryServerInterceptor run Check on incoming requests for Gin and gRPC.
*/
package jwtauth
