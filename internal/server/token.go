package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wang-tianhao/vibrant-credentials-go/jwtauth"
)

type issueTokenRequest struct {
	Subject string   `json:"subject"`
	UserID  int64    `json:"user_id"`
	Roles   []string `json:"roles"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type headerView struct {
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
	Type      string `json:"typ,omitempty"`
}

type claimsView struct {
	Subject   string         `json:"sub,omitempty"`
	Issuer    string         `json:"iss,omitempty"`
	Audience  string         `json:"aud,omitempty"`
	ExpiresAt *time.Time     `json:"exp,omitempty"`
	NotBefore *time.Time     `json:"nbf,omitempty"`
	IssuedAt  *time.Time     `json:"iat,omitempty"`
	ID        string         `json:"jti,omitempty"`
	UserID    int64          `json:"id,omitempty"`
	Roles     []string       `json:"roles,omitempty"`
	Custom    map[string]any `json:"custom,omitempty"`
}

type tokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func newHeaderView(h jwtauth.Header) headerView {
	return headerView{Algorithm: h.Algorithm, KeyID: h.KeyID, Type: h.Type}
}

func newClaimsView(c *jwtauth.ClaimSet) *claimsView {
	if c == nil {
		return nil
	}
	optional := func(t time.Time) *time.Time {
		if t.IsZero() {
			return nil
		}
		return &t
	}
	return &claimsView{
		Subject:   c.Subject,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		ExpiresAt: optional(c.ExpiresAt),
		NotBefore: optional(c.NotBefore),
		IssuedAt:  optional(c.IssuedAt),
		ID:        c.ID,
		UserID:    c.UserID,
		Roles:     c.Roles,
		Custom:    c.Custom,
	}
}

func newTokenPair(access, refresh *jwtauth.Token) tokenPair {
	return tokenPair{
		AccessToken:  access.Serialize(),
		RefreshToken: refresh.Serialize(),
		TokenType:    "Bearer",
		ExpiresAt:    access.Claims.ExpiresAt,
	}
}

// tokenDemo issues the demonstration token, parses it back and checks it
func (s *Server) tokenDemo(c *gin.Context) {
	tok, err := s.issuer.IssueAccessToken(DemoSubject, DemoUserID, []string{DemoRole}, nil)
	if err != nil {
		s.internalError(c, "issue demo token", err)
		return
	}

	parsed, err := jwtauth.Parse(tok.Serialize())
	if err != nil {
		s.internalError(c, "parse demo token", err)
		return
	}

	res := s.check(parsed.Serialize())
	c.JSON(http.StatusOK, gin.H{
		"token":   tok.Serialize(),
		"header":  newHeaderView(parsed.Header),
		"claims":  newClaimsView(&parsed.Claims),
		"status":  res.Status.String(),
		"valid":   res.Valid(),
		"expired": parsed.Claims.ExpiredAt(s.clock(), 0),
	})
}

// issueToken issues an access and refresh token pair for the posted identity
func (s *Server) issueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Subject == "" {
		badRequest(c, "subject is required")
		return
	}

	access, err := s.issuer.IssueAccessToken(req.Subject, req.UserID, req.Roles, nil)
	if err != nil {
		s.internalError(c, "issue access token", err)
		return
	}
	refresh, err := s.issuer.IssueRefreshToken(req.Subject, req.UserID, req.Roles, time.Time{})
	if err != nil {
		s.internalError(c, "issue refresh token", err)
		return
	}

	c.JSON(http.StatusOK, newTokenPair(access, refresh))
}

// verifyToken reports the Check outcome of the posted token. Rejected tokens
// are a normal answer, not a request error.
func (s *Server) verifyToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		badRequest(c, "token is required")
		return
	}

	res := s.check(req.Token)
	body := gin.H{
		"status": res.Status.String(),
		"valid":  res.Valid(),
	}
	if res.Claims != nil {
		body["claims"] = newClaimsView(res.Claims)
	}
	if res.Err != nil {
		body["reason"] = string(jwtauth.CodeOf(res.Err))
	}
	c.JSON(http.StatusOK, body)
}

// refreshToken exchanges a refresh token for a new pair
func (s *Server) refreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badRequest(c, "refresh_token is required")
		return
	}

	access, refresh, err := s.issuer.Refresh(req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":  "unauthorized",
			"reason": string(jwtauth.CodeOf(err)),
		})
		return
	}

	c.JSON(http.StatusOK, newTokenPair(access, refresh))
}

// publishJWKS serves the public verification key as a JWK set
func (s *Server) publishJWKS(c *gin.Context) {
	c.JSON(http.StatusOK, s.jwks)
}

// me echoes the claims of the authenticated caller
func (s *Server) me(c *gin.Context) {
	claims := jwtauth.MustGetClaims(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"claims": newClaimsView(claims)})
}

func (s *Server) admin(c *gin.Context) {
	claims := jwtauth.MustGetClaims(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "welcome " + claims.Subject})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) check(serialized string) jwtauth.Result {
	return jwtauth.Check(serialized, s.issuer.VerificationKey(), s.clock(), s.clockSkew)
}
