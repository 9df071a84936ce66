package handlers

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"

	"github.com/ojalink/ojalink/libs/auth"
)

// TokenSigner issues and verifies access tokens. The HS256 variant covers
// dev and single-node setups; RS256 lets other services verify through the
// JWKS endpoint without sharing a secret.
type TokenSigner interface {
	Sign(claims auth.Claims) (string, error)
	Verify(token string) (*auth.Claims, error)
	JWKS() []map[string]any
}

type hs256Signer struct {
	secret string
}

func NewHS256Signer(secret string) TokenSigner {
	return &hs256Signer{secret: secret}
}

func (s *hs256Signer) Sign(claims auth.Claims) (string, error) {
	return auth.SignHS256(claims, s.secret)
}

func (s *hs256Signer) Verify(token string) (*auth.Claims, error) {
	return auth.ParseAndVerifyHS256(token, s.secret)
}

// Symmetric keys are never published.
func (s *hs256Signer) JWKS() []map[string]any { return nil }

type rs256Signer struct {
	key *rsa.PrivateKey
	kid string
}

func NewRS256Signer(pemBytes []byte, kid string) (TokenSigner, error) {
	key, err := decodeRSAPrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}
	if kid == "" {
		kid = deriveKeyID(&key.PublicKey)
	}
	return &rs256Signer{key: key, kid: kid}, nil
}

func (s *rs256Signer) Sign(claims auth.Claims) (string, error) {
	input, err := signingInput(claims, s.kid)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(input))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return input + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

func (s *rs256Signer) Verify(token string) (*auth.Claims, error) {
	return auth.VerifyRS256(token, &s.key.PublicKey)
}

func (s *rs256Signer) JWKS() []map[string]any {
	pub := &s.key.PublicKey
	return []map[string]any{{
		"kty": "RSA",
		"kid": s.kid,
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}
}

func signingInput(claims auth.Claims, kid string) (string, error) {
	headerJSON, err := json.Marshal(map[string]string{
		"alg": "RS256",
		"typ": "JWT",
		"kid": kid,
	})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(payloadJSON), nil
}

func decodeRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid pem")
	}
	// PKCS#1 first (openssl genrsa default), then PKCS#8.
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
	}
	return nil, errors.New("unsupported private key")
}

// deriveKeyID gives a stable short id from the public modulus so restarts
// publish the same kid for the same key.
func deriveKeyID(pub *rsa.PublicKey) string {
	sum := sha256.Sum256(pub.N.Bytes())
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}
