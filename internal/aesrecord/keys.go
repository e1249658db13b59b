// Package aesrecord implements the AES-256-CBC record layer with a
// rolling truncated HMAC-SHA-256 chain that every AES-mode appliance
// frame is wrapped in: one call in, one WebSocket binary payload out,
// and back.
package aesrecord

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/cbrgm/hclocal/pkg/b64"
)

const (
	tagSize = 16
	ivSize  = 16

	dirTx byte = 0x45 // 'E'
	dirRx byte = 0x43 // 'C'
)

// Keys holds the derived encryption/MAC keys and static IV for one
// appliance. Deterministic from the PSK, but never held at process scope
// — each Session owns exactly one Keys value for its lifetime.
type Keys struct {
	EncKey []byte
	MACKey []byte
	IV     []byte
}

// Derive computes enc_key/mac_key from the raw PSK bytes per §4.1, and
// decodes the static IV. psk and iv64 are URL-safe base64 without padding.
func Derive(psk64, iv64 string) (Keys, error) {
	psk, err := b64.DecodePadded(psk64)
	if err != nil {
		return Keys{}, err
	}
	iv, err := b64.DecodePadded(iv64)
	if err != nil {
		return Keys{}, err
	}
	if len(iv) != ivSize {
		return Keys{}, ErrInvalidIV
	}
	return Keys{
		EncKey: macSum(psk, []byte("ENC")),
		MACKey: macSum(psk, []byte("MAC")),
		IV:     iv,
	}, nil
}

func macSum(key, msg []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(msg)
	return h.Sum(nil)
}
