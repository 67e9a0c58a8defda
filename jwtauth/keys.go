package jwtauth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// SigningKey is an elliptic-curve key pair identified by a key ID.
// A SigningKey built from a public key alone can verify but not sign.
type SigningKey struct {
	id      string
	private *ecdsa.PrivateKey
	public  *ecdsa.PublicKey
	method  *jwt.SigningMethodECDSA
}

// KeyProvider loads signing keys by identifier
type KeyProvider interface {
	Load(id string) (*SigningKey, error)
}

// methodForCurve maps a curve to its JWS algorithm
func methodForCurve(curve elliptic.Curve) (*jwt.SigningMethodECDSA, error) {
	if curve == nil {
		return nil, NewValidationError(ErrAlgorithmUnavailable, "key has no curve", nil)
	}
	switch curve.Params().Name {
	case "P-256":
		return jwt.SigningMethodES256, nil
	case "P-384":
		return jwt.SigningMethodES384, nil
	case "P-521":
		return jwt.SigningMethodES512, nil
	}
	return nil, NewValidationError(ErrAlgorithmUnavailable,
		fmt.Sprintf("curve %s has no supported signing algorithm", curve.Params().Name), nil)
}

// NewSigningKey wraps an existing EC private key
func NewSigningKey(id string, private *ecdsa.PrivateKey) (*SigningKey, error) {
	if private == nil {
		return nil, NewValidationError(ErrKeyUnavailable, "private key cannot be nil", nil)
	}
	method, err := methodForCurve(private.Curve)
	if err != nil {
		return nil, err
	}
	return &SigningKey{
		id:      id,
		private: private,
		public:  &private.PublicKey,
		method:  method,
	}, nil
}

// NewVerificationKey wraps an EC public key; the result cannot sign
func NewVerificationKey(id string, public *ecdsa.PublicKey) (*SigningKey, error) {
	if public == nil {
		return nil, NewValidationError(ErrKeyUnavailable, "public key cannot be nil", nil)
	}
	method, err := methodForCurve(public.Curve)
	if err != nil {
		return nil, err
	}
	return &SigningKey{id: id, public: public, method: method}, nil
}

// GenerateSigningKey creates a fresh key pair on curve (P-256 if nil)
func GenerateSigningKey(id string, curve elliptic.Curve) (*SigningKey, error) {
	if curve == nil {
		curve = elliptic.P256()
	}
	private, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, NewValidationError(ErrKeyUnavailable, "failed to generate EC key", err)
	}
	return NewSigningKey(id, private)
}

// ID returns the key identifier placed in the kid header
func (k *SigningKey) ID() string {
	return k.id
}

// Algorithm returns the JWS algorithm name (ES256, ES384 or ES512)
func (k *SigningKey) Algorithm() string {
	return k.method.Alg()
}

// CanSign reports whether the key carries a private component
func (k *SigningKey) CanSign() bool {
	return k != nil && k.private != nil
}

// Public returns the public component
func (k *SigningKey) Public() *ecdsa.PublicKey {
	return k.public
}

// VerificationKey returns a copy of k without the private component
func (k *SigningKey) VerificationKey() *SigningKey {
	return &SigningKey{id: k.id, public: k.public, method: k.method}
}

// PublicJWK returns the public component as a JWK carrying kid, alg and use
func (k *SigningKey) PublicJWK() (jwk.Key, error) {
	key, err := jwk.Import(k.public)
	if err != nil {
		return nil, fmt.Errorf("failed to import public key: %w", err)
	}
	if err := k.annotate(key); err != nil {
		return nil, err
	}
	return key, nil
}

// MarshalJWK encodes the full key pair as JWK JSON, the format read by FileKeyProvider
func (k *SigningKey) MarshalJWK() ([]byte, error) {
	if !k.CanSign() {
		return nil, NewValidationError(ErrKeyUnavailable, "key has no private component", nil)
	}
	key, err := jwk.Import(k.private)
	if err != nil {
		return nil, fmt.Errorf("failed to import private key: %w", err)
	}
	if err := k.annotate(key); err != nil {
		return nil, err
	}
	return json.MarshalIndent(key, "", "  ")
}

func (k *SigningKey) annotate(key jwk.Key) error {
	var alg jwa.SignatureAlgorithm
	switch k.Algorithm() {
	case "ES256":
		alg = jwa.ES256()
	case "ES384":
		alg = jwa.ES384()
	case "ES512":
		alg = jwa.ES512()
	default:
		return NewValidationError(ErrAlgorithmUnavailable, "unknown algorithm "+k.Algorithm(), nil)
	}
	if k.id != "" {
		if err := key.Set(jwk.KeyIDKey, k.id); err != nil {
			return fmt.Errorf("failed to set key ID: %w", err)
		}
	}
	if err := key.Set(jwk.AlgorithmKey, alg); err != nil {
		return fmt.Errorf("failed to set algorithm: %w", err)
	}
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return fmt.Errorf("failed to set key usage: %w", err)
	}
	return nil
}

// PublicJWKS returns the public components of keys as a JWK set
func PublicJWKS(keys ...*SigningKey) (jwk.Set, error) {
	set := jwk.NewSet()
	for _, k := range keys {
		pub, err := k.PublicJWK()
		if err != nil {
			return nil, err
		}
		if err := set.AddKey(pub); err != nil {
			return nil, fmt.Errorf("failed to add key %s: %w", k.id, err)
		}
	}
	return set, nil
}

// ParseJWKS returns the verification keys of a JWK set, such as the document
// served at /.well-known/jwks.json. Private members are ignored.
func ParseJWKS(data []byte) ([]*SigningKey, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, NewValidationError(ErrKeyUnavailable, "failed to parse key set", err)
	}

	keys := make([]*SigningKey, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		raw, err := json.Marshal(key)
		if err != nil {
			return nil, NewValidationError(ErrKeyUnavailable, "failed to encode key", err)
		}
		k, err := parseJWK(raw)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k.VerificationKey())
	}
	if len(keys) == 0 {
		return nil, NewValidationError(ErrKeyUnavailable, "key set is empty", nil)
	}
	return keys, nil
}

// ParseSigningKeyJWK parses a JWK document holding an EC key.
// When the document has no kid, the RFC 7638 SHA-256 thumbprint is used.
func ParseSigningKeyJWK(data []byte) (*SigningKey, error) {
	return parseJWK(data)
}

// ParseSigningKeyPEM parses a PEM encoded EC private key (SEC 1 or PKCS#8) or public key (PKIX)
func ParseSigningKeyPEM(id string, pemBytes []byte) (*SigningKey, error) {
	sk, err := parseJWK(pemBytes, jwk.WithPEM(true))
	if err != nil {
		return nil, err
	}
	if id != "" {
		sk.id = id
	}
	return sk, nil
}

func parseJWK(data []byte, opts ...jwk.ParseOption) (*SigningKey, error) {
	key, err := jwk.ParseKey(data, opts...)
	if err != nil {
		return nil, NewValidationError(ErrKeyUnavailable, "failed to parse key", err)
	}
	if key.KeyType().String() != "EC" {
		return nil, NewValidationError(ErrAlgorithmUnavailable,
			fmt.Sprintf("key type %s is not EC", key.KeyType()), nil)
	}

	id, ok := key.KeyID()
	if !ok || id == "" {
		tp, err := key.Thumbprint(crypto.SHA256)
		if err != nil {
			return nil, NewValidationError(ErrKeyUnavailable, "failed to compute key thumbprint", err)
		}
		id = base64.RawURLEncoding.EncodeToString(tp)
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, NewValidationError(ErrKeyUnavailable, "failed to export key", err)
	}

	switch v := raw.(type) {
	case *ecdsa.PrivateKey:
		return NewSigningKey(id, v)
	case ecdsa.PrivateKey:
		return NewSigningKey(id, &v)
	case *ecdsa.PublicKey:
		return NewVerificationKey(id, v)
	case ecdsa.PublicKey:
		return NewVerificationKey(id, &v)
	}
	return nil, NewValidationError(ErrKeyUnavailable, fmt.Sprintf("unexpected key material %T", raw), nil)
}

// FileKeyProvider loads keys from files in Dir. Files ending in .pem are read as PEM,
// anything else (e.g. ec-key.json) as a JWK document.
type FileKeyProvider struct {
	Dir string
	// PEMKeyID is the kid given to PEM keys. Empty means the file name without extension.
	PEMKeyID string
}

// Load reads the key file named id
func (p FileKeyProvider) Load(id string) (*SigningKey, error) {
	if id == "" {
		return nil, NewValidationError(ErrKeyUnavailable, "key file name cannot be empty", nil)
	}
	path := id
	if p.Dir != "" && !filepath.IsAbs(id) {
		path = filepath.Join(p.Dir, id)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewValidationError(ErrKeyUnavailable, fmt.Sprintf("failed to read key file %s", path), err)
	}

	if strings.EqualFold(filepath.Ext(path), ".pem") {
		name := p.PEMKeyID
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return ParseSigningKeyPEM(name, data)
	}
	return ParseSigningKeyJWK(data)
}

// WriteKeyFile stores k as a JWK document readable by FileKeyProvider
func WriteKeyFile(path string, k *SigningKey) error {
	data, err := k.MarshalJWK()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file %s: %w", path, err)
	}
	return nil
}
