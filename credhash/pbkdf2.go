package credhash

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// Algorithm names a PBKDF2 pseudo-random function
type Algorithm string

const (
	PBKDF2WithHmacSHA512 Algorithm = "PBKDF2WithHmacSHA512"
	PBKDF2WithHmacSHA256 Algorithm = "PBKDF2WithHmacSHA256"
	PBKDF2WithHmacSHA1   Algorithm = "PBKDF2WithHmacSHA1"
)

// Defaults used by Hasher and the demonstration endpoints
const (
	DefaultAlgorithm  = PBKDF2WithHmacSHA512
	DefaultIterations = 10000
	DefaultOutputBits = 512
	DefaultSaltLength = 16
)

type prf struct {
	name string // short name used in encoded credentials
	new  func() hash.Hash
	size int
}

var algorithms = map[Algorithm]prf{
	PBKDF2WithHmacSHA512: {name: "pbkdf2-sha512", new: sha512.New, size: sha512.Size},
	PBKDF2WithHmacSHA256: {name: "pbkdf2-sha256", new: sha256.New, size: sha256.Size},
	PBKDF2WithHmacSHA1:   {name: "pbkdf2-sha1", new: sha1.New, size: sha1.Size},
}

// lookup resolves an algorithm identifier
func lookup(alg Algorithm) (prf, error) {
	p, ok := algorithms[alg]
	if !ok {
		return prf{}, fmt.Errorf("%w: %s", ErrAlgorithmUnavailable, alg)
	}
	return p, nil
}

// algorithmByName resolves the short name stored in an encoded credential
func algorithmByName(name string) (Algorithm, bool) {
	for alg, p := range algorithms {
		if p.name == name {
			return alg, true
		}
	}
	return "", false
}

// Derive runs PBKDF2 with HMAC-SHA512 and returns outputBits/8 bytes.
// The result is a pure function of its inputs.
func Derive(password, salt []byte, iterations, outputBits int) ([]byte, error) {
	return DeriveWith(DefaultAlgorithm, password, salt, iterations, outputBits)
}

// DeriveWith is Derive with an explicit pseudo-random function.
func DeriveWith(alg Algorithm, password, salt []byte, iterations, outputBits int) ([]byte, error) {
	p, err := lookup(alg)
	if err != nil {
		return nil, err
	}
	if iterations < 1 {
		return nil, ErrInvalidIterations
	}
	if outputBits <= 0 || outputBits%8 != 0 {
		return nil, ErrInvalidOutputLength
	}
	if len(salt) == 0 {
		return nil, ErrEmptySalt
	}

	keyLen := outputBits / 8
	// RFC 8018 caps dkLen at (2^32 - 1) * hLen
	if uint64(keyLen) > uint64(1<<32-1)*uint64(p.size) {
		return nil, ErrOutputTooLong
	}

	return pbkdf2.Key(password, salt, iterations, keyLen, p.new), nil
}

// Verify re-derives the key for candidate and compares it with expected in constant time.
func Verify(candidate, salt []byte, iterations, outputBits int, expected []byte) (bool, error) {
	return VerifyWith(DefaultAlgorithm, candidate, salt, iterations, outputBits, expected)
}

// VerifyWith is Verify with an explicit pseudo-random function.
func VerifyWith(alg Algorithm, candidate, salt []byte, iterations, outputBits int, expected []byte) (bool, error) {
	derived, err := DeriveWith(alg, candidate, salt, iterations, outputBits)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(derived, expected) == 1, nil
}

// EncodeKey returns the standard base64 form of a derived key
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey reverses EncodeKey
func DecodeKey(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
