// canonical.go renders JSON in RFC 8785 canonical form.
// pass class and object bodies are canonicalized so that the same inputs always produce byte-identical request bodies.
package crypto

import (
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// CanonicalizeJSON converts JSON to canonical form per RFC 8785
//
// If the input is not valid JSON, an error is returned (handled by jcs library).
func CanonicalizeJSON(jsonData []byte) ([]byte, error) {
	return jcs.Transform(jsonData)
}

// MarshalCanonical marshals v to JSON and canonicalizes the result.
func MarshalCanonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, WrapValidationError(err, "failed to marshal JSON")
	}

	canonical, err := CanonicalizeJSON(raw)
	if err != nil {
		return nil, WrapInternalError(err, "failed to canonicalize JSON")
	}

	return canonical, nil
}
