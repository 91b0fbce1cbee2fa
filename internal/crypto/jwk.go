// JWK (JSON Web Key) conversion functions
//
// these functions convert raw RSA keys to JWK format (and vice versa)
// Reference: https://datatracker.ietf.org/doc/html/rfc7517 (JSON Web Key standard)
//
// The private key of a service account is held as a jwk.Key so the kid (the provider's private_key_id)
// travels with the key into the JWS header.

package crypto

import (
	"crypto/rsa"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// RSAPublicKeyToJWK converts a RSA public key to JWK format
func RSAPublicKeyToJWK(publicKey *rsa.PublicKey, keyID string) (jwk.Key, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	if keyID == "" {
		return nil, fmt.Errorf("keyID is required")
	}

	// create the jwk key
	key, err := jwk.Import(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK from RSA public key: %w", err)
	}

	return withSignatureMetadata(key, keyID)
}

// RSAPrivateKeyToJWK converts an RSA private key to JWK format
func RSAPrivateKeyToJWK(privateKey *rsa.PrivateKey, keyID string) (jwk.Key, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key is nil")
	}
	if keyID == "" {
		return nil, fmt.Errorf("keyID is required")
	}

	key, err := jwk.Import(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK from RSA private key: %w", err)
	}

	return withSignatureMetadata(key, keyID)
}

func withSignatureMetadata(key jwk.Key, keyID string) (jwk.Key, error) {
	// Set key ID
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}

	// Set algorithm
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	// Set key usage
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	return key, nil
}

// JWKToRSAPublicKey converts a JWK to an RSA public key using lestrrat-go/jwx
func JWKToRSAPublicKey(key jwk.Key) (*rsa.PublicKey, error) {
	if key == nil {
		return nil, fmt.Errorf("key is nil")
	}

	var raw any
	// Export to raw key
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to export RSA public key: %w", err)
	}

	switch v := raw.(type) {
	case *rsa.PublicKey:
		return v, nil
	case *rsa.PrivateKey:
		return &v.PublicKey, nil
	default:
		alg, _ := key.Algorithm()
		return nil, fmt.Errorf("expected RSA key but got key with algorithm %v and type %T", alg, raw)
	}
}

// PublicKeySet returns a JWK set holding the public half of privateKey.
// It is used to publish or pin the key that verifies save links.
func PublicKeySet(privateKey *rsa.PrivateKey, keyID string) (jwk.Set, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key is nil")
	}

	key, err := RSAPublicKeyToJWK(&privateKey.PublicKey, keyID)
	if err != nil {
		return nil, err
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, fmt.Errorf("failed to add key to set: %w", err)
	}

	return set, nil
}
