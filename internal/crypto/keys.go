// this file contains functions to parse and generate the RSA keys used by wallet service accounts
//
// Service account keys are issued by the wallet provider as PEM encoded private keys embedded in a JSON key file.
// Google issues PKCS#8 keys (https://datatracker.ietf.org/doc/html/rfc5208) but older tooling produces PKCS#1,
// so both are accepted.

package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// ParseRSAPrivateKeyPEM decodes the first PEM block in pemData and returns the RSA private key it contains.
func ParseRSAPrivateKeyPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, NewKeyManagementError("failed to decode PEM block")
	}

	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyManagementError(err, "failed to parse PKCS#8 private key")
		}
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, NewKeyManagementError(fmt.Sprintf("key is not an RSA private key (type: %T)", key))
		}
		return privateKey, nil
	case "RSA PRIVATE KEY":
		privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyManagementError(err, "failed to parse PKCS#1 private key")
		}
		return privateKey, nil
	default:
		return nil, NewKeyManagementError(fmt.Sprintf("PEM block is not a private key (type: %s)", block.Type))
	}
}

// EncodeRSAPrivateKeyToPEM returns the PKCS#8 PEM encoding of privateKey
func EncodeRSAPrivateKeyToPEM(privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, NewValidationError("private key is nil")
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, WrapInternalError(err, "failed to marshal private key")
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes}), nil
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size
// minimum key size is 2048 bits - key size must be a multiple of 256
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, fmt.Errorf("key size must be at least 2048 bits")
	}

	if bits%256 != 0 {
		return nil, fmt.Errorf("key size should be a multiple of 256")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	return privateKey, nil
}

// ReadJWKSetFromFile loads a JWK set (e.g. a downloaded copy of a service account's published keys)
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "service-account.jwks.json")
func ReadJWKSetFromFile(baseDir, filename string) (jwk.Set, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	jsonBytes, err := root.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	set, err := jwk.Parse(jsonBytes)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to parse JWK set")
	}

	if set.Len() == 0 {
		return nil, NewKeyManagementError("JWK set is empty")
	}

	return set, nil
}
