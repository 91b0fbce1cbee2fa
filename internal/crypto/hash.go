// this file provides the BLAKE3 fingerprints used to identify key material and pass payloads
// without logging or storing the data itself.

package crypto

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the BLAKE3-256 hash of data
func Fingerprint(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// FingerprintHex returns the first 16 hex characters of the fingerprint of data.
// Use it to correlate payloads in logs, not as an identifier.
func FingerprintHex(data []byte) string {
	sum := Fingerprint(data)
	return hex.EncodeToString(sum[:8])
}

// VerifyFingerprint reports whether data has the expected fingerprint
func VerifyFingerprint(data []byte, expected [32]byte) bool {
	return Fingerprint(data) == expected
}
