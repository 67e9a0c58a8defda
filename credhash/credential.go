package credhash

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Upper bounds accepted by ParseCredential. Encoded credentials may come from
// untrusted input, so the work they can request is capped.
const (
	MaxIterations = 10_000_000
	MaxOutputBits = 4096
)

// Credential is a derived key together with the parameters needed to reproduce it
type Credential struct {
	Algorithm  Algorithm
	Iterations int
	OutputBits int
	Salt       []byte
	Key        []byte
}

// String encodes the credential as
// $pbkdf2-sha512$i=<iterations>,l=<bits>$<salt>$<key> with unpadded standard base64.
func (c *Credential) String() string {
	p, err := lookup(c.Algorithm)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("$%s$i=%d,l=%d$%s$%s",
		p.name, c.Iterations, c.OutputBits,
		base64.RawStdEncoding.EncodeToString(c.Salt),
		base64.RawStdEncoding.EncodeToString(c.Key))
}

// ParseCredential decodes the output of Credential.String
func ParseCredential(encoded string) (*Credential, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" {
		return nil, ErrCredentialFormat
	}

	alg, ok := algorithmByName(parts[1])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmUnavailable, parts[1])
	}

	iterations, bits, err := parseParams(parts[2])
	if err != nil {
		return nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(salt) == 0 {
		return nil, ErrCredentialSalt
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key)*8 != bits {
		return nil, ErrCredentialHash
	}

	return &Credential{
		Algorithm:  alg,
		Iterations: iterations,
		OutputBits: bits,
		Salt:       salt,
		Key:        key,
	}, nil
}

// parseParams reads "i=<iterations>,l=<bits>" and nothing else
func parseParams(s string) (iterations, bits int, err error) {
	iterPart, bitsPart, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, ErrCredentialParams
	}
	iterations, ok = intParam(iterPart, "i=")
	if !ok || iterations < 1 || iterations > MaxIterations {
		return 0, 0, ErrCredentialParams
	}
	bits, ok = intParam(bitsPart, "l=")
	if !ok || bits <= 0 || bits%8 != 0 || bits > MaxOutputBits {
		return 0, 0, ErrCredentialParams
	}
	return iterations, bits, nil
}

func intParam(s, prefix string) (int, bool) {
	digits, ok := strings.CutPrefix(s, prefix)
	if !ok || digits == "" || strings.ContainsAny(digits, "+-") {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NewSalt returns n cryptographically random bytes
func NewSalt(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrEmptySalt
	}
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaltGenerationFailed, err)
	}
	return salt, nil
}

// Hasher hashes passwords with a fixed parameter set. The zero value is not usable; use NewHasher.
type Hasher struct {
	algorithm  Algorithm
	iterations int
	outputBits int
	saltLength int
}

// Option configures a Hasher
type Option func(*Hasher)

// WithAlgorithm selects the PBKDF2 pseudo-random function
func WithAlgorithm(alg Algorithm) Option {
	return func(h *Hasher) {
		h.algorithm = alg
	}
}

// WithIterations sets the PBKDF2 iteration count
func WithIterations(n int) Option {
	return func(h *Hasher) {
		h.iterations = n
	}
}

// WithOutputBits sets the derived key length in bits
func WithOutputBits(n int) Option {
	return func(h *Hasher) {
		h.outputBits = n
	}
}

// WithSaltLength sets the length of generated salts in bytes
func WithSaltLength(n int) Option {
	return func(h *Hasher) {
		h.saltLength = n
	}
}

// NewHasher validates the options and returns an immutable Hasher
func NewHasher(opts ...Option) (*Hasher, error) {
	h := &Hasher{
		algorithm:  DefaultAlgorithm,
		iterations: DefaultIterations,
		outputBits: DefaultOutputBits,
		saltLength: DefaultSaltLength,
	}
	for _, opt := range opts {
		opt(h)
	}

	if _, err := lookup(h.algorithm); err != nil {
		return nil, err
	}
	if h.iterations < 1 {
		return nil, ErrInvalidIterations
	}
	if h.outputBits <= 0 || h.outputBits%8 != 0 {
		return nil, ErrInvalidOutputLength
	}
	if h.saltLength <= 0 {
		return nil, ErrEmptySalt
	}
	return h, nil
}

// Hash derives a credential for password under a fresh salt
func (h *Hasher) Hash(password []byte) (*Credential, error) {
	salt, err := NewSalt(h.saltLength)
	if err != nil {
		return nil, err
	}
	return h.HashWithSalt(password, salt)
}

// HashWithSalt derives a credential for password under the given salt
func (h *Hasher) HashWithSalt(password, salt []byte) (*Credential, error) {
	key, err := DeriveWith(h.algorithm, password, salt, h.iterations, h.outputBits)
	if err != nil {
		return nil, err
	}
	return &Credential{
		Algorithm:  h.algorithm,
		Iterations: h.iterations,
		OutputBits: h.outputBits,
		Salt:       salt,
		Key:        key,
	}, nil
}

// Check re-derives with the parameters stored in c. It returns ErrMismatch when password is wrong.
func Check(password []byte, c *Credential) error {
	if c == nil {
		return ErrCredentialFormat
	}
	ok, err := VerifyWith(c.Algorithm, password, c.Salt, c.Iterations, c.OutputBits, c.Key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMismatch
	}
	return nil
}

// Accepts reports whether c was produced under parameters no more costly than h's.
// Servers verifying client-supplied credentials use it to refuse work they would not do themselves.
func (h *Hasher) Accepts(c *Credential) bool {
	return c != nil &&
		c.Algorithm == h.algorithm &&
		c.Iterations <= h.iterations &&
		c.OutputBits <= h.outputBits
}

// SaltLength reports the length of salts generated by Hash
func (h *Hasher) SaltLength() int {
	return h.saltLength
}

// Iterations reports the configured iteration count
func (h *Hasher) Iterations() int {
	return h.iterations
}

// OutputBits reports the configured derived key length
func (h *Hasher) OutputBits() int {
	return h.outputBits
}

// Algorithm reports the configured pseudo-random function
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}
