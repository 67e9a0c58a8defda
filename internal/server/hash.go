package server

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wang-tianhao/vibrant-credentials-go/credhash"
)

type hashRequest struct {
	Password string `json:"password"`
}

type verifyPasswordRequest struct {
	Password   string `json:"password"`
	Credential string `json:"credential"`
}

// hashDemo hashes the demo password under a fresh salt and verifies it
// against itself and a wrong candidate
func (s *Server) hashDemo(c *gin.Context) {
	cred, err := s.hasher.Hash(s.demoPassword)
	if err != nil {
		s.internalError(c, "hash demo password", err)
		return
	}

	correct, err := matches(s.demoPassword, cred)
	if err != nil {
		s.internalError(c, "verify demo password", err)
		return
	}
	wrong, err := matches([]byte("WrongPassword"), cred)
	if err != nil {
		s.internalError(c, "verify wrong password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"algorithm":              cred.Algorithm,
		"iterations":             cred.Iterations,
		"output_bits":            cred.OutputBits,
		"salt":                   base64.StdEncoding.EncodeToString(cred.Salt),
		"hash":                   credhash.EncodeKey(cred.Key),
		"credential":             cred.String(),
		"correct_password_match": correct,
		"wrong_password_match":   wrong,
	})
}

// hashPassword returns the encoded credential for the posted password
func (s *Server) hashPassword(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		badRequest(c, "password is required")
		return
	}

	cred, err := s.hasher.Hash([]byte(req.Password))
	if err != nil {
		s.internalError(c, "hash password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credential": cred.String()})
}

// verifyPassword checks a password against an encoded credential. Credentials
// costlier than the server's own hasher are refused before any derivation.
func (s *Server) verifyPassword(c *gin.Context) {
	var req verifyPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Credential == "" {
		badRequest(c, "password and credential are required")
		return
	}

	cred, err := credhash.ParseCredential(req.Credential)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if !s.hasher.Accepts(cred) {
		badRequest(c, "credential parameters exceed server policy")
		return
	}

	match, err := matches([]byte(req.Password), cred)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": match})
}

// matches turns ErrMismatch into false; other errors mean the credential is unusable
func matches(password []byte, cred *credhash.Credential) (bool, error) {
	err := credhash.Check(password, cred)
	if errors.Is(err, credhash.ErrMismatch) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func badRequest(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad_request", "reason": reason})
}

// internalError logs err without request data and answers 500
func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error("handler failed", "op", op, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
