// Package b64 provides the URL-safe base64 helpers the wire protocol
// depends on: appliances omit padding on PSKs, IVs and nonces, and the
// MAC chain needs a constant-time comparison.
package b64

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
)

// DecodePadded decodes a URL-safe base64 string that may be missing its
// trailing '=' padding, re-adding it before decoding.
func DecodePadded(s string) ([]byte, error) {
	if rem := len(s) % 4; rem != 0 {
		s += "===="[:4-rem]
	}
	return base64.URLEncoding.DecodeString(s)
}

// EncodeUnpadded encodes b as URL-safe base64 with the padding stripped,
// matching the form the appliance expects for nonces.
func EncodeUnpadded(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Nonce returns n cryptographically random bytes encoded as unpadded
// URL-safe base64, used for the /ci/authentication handshake step.
func Nonce(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return EncodeUnpadded(raw), nil
}

// ConstantTimeEqual reports whether a and b are equal, in constant time
// with respect to their contents (not their lengths).
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
