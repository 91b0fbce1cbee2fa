// jws.go - Functions for signing and verifying JWS (JSON Web Signature)
// save links are JWTs in JWS compact serialization signed with RS256 (the only algorithm the wallet provider accepts
// for service account keys).
package crypto

import (
	"bytes"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// JWSHeader represents the header of a signed save link
type JWSHeader struct {
	Algorithm string `json:"alg"` // "RS256"
	KeyID     string `json:"kid"` // Key ID
	Type      string `json:"typ,omitempty"`
}

// SignRS256 returns a JWS Compact Serialization (Base64URL) string.
// The key must be an RSA private key with a kid; the kid and "typ: JWT" are placed in the protected header.
func SignRS256(payload []byte, privateKey jwk.Key) (string, error) {
	if privateKey == nil {
		return "", NewValidationError("private key is nil")
	}

	keyID, ok := privateKey.KeyID()
	if !ok || keyID == "" {
		return "", NewValidationError("keyID is required")
	}

	headers := jws.NewHeaders()
	if err := headers.Set(jws.TypeKey, "JWT"); err != nil {
		return "", WrapInternalError(err, "failed to set typ header")
	}
	if err := headers.Set(jws.KeyIDKey, keyID); err != nil {
		return "", WrapInternalError(err, "failed to set kid header")
	}

	signed, err := jws.Sign(payload, jws.WithKey(jwa.RS256(), privateKey, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", WrapSignatureError(err, "failed to sign payload")
	}

	return string(signed), nil
}

// VerifyRS256 verifies a RSA JWS compact serialization signature and returns the payload
func VerifyRS256(jwsString string, publicKey *rsa.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, NewValidationError("public key is nil")
	}

	payload, err := jws.Verify([]byte(jwsString), jws.WithKey(jwa.RS256(), publicKey))
	if err != nil {
		return nil, WrapSignatureError(err, "failed to verify JWS")
	}

	return payload, nil
}

// VerifyWithKeySet verifies a JWS against the key in set whose kid matches the JWS header and returns the payload
func VerifyWithKeySet(jwsString string, set jwk.Set) ([]byte, error) {
	if set == nil || set.Len() == 0 {
		return nil, NewKeyManagementError("key set is empty")
	}

	payload, err := jws.Verify([]byte(jwsString), jws.WithKeySet(set))
	if err != nil {
		return nil, WrapSignatureError(err, "failed to verify JWS")
	}

	return payload, nil
}

// ParseHeader extracts the header from a JWS without verifying
// The function returns an error if the header contains something other than the fields in JWSHeader
func ParseHeader(jwsString string) (JWSHeader, error) {

	// the structure of the jws is Base64URL(Header).Base64URL(Payload).Base64URL(Signature)
	parts := strings.Split(jwsString, ".")
	if len(parts) != 3 {
		return JWSHeader{}, NewValidationError("invalid JWS format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return JWSHeader{}, WrapValidationError(err, "error decoding the header")
	}

	var header JWSHeader

	decoder := json.NewDecoder(bytes.NewReader(headerBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&header); err != nil {
		return JWSHeader{}, WrapValidationError(err, "could not unmarshal header")
	}

	// Validate required fields are present
	if header.Algorithm == "" {
		return JWSHeader{}, NewValidationError("missing required field: alg")
	}
	if header.KeyID == "" {
		return JWSHeader{}, NewValidationError(fmt.Sprintf("missing required field: kid (alg %s)", header.Algorithm))
	}

	return header, nil
}
