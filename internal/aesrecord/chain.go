package aesrecord

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"sync"

	"github.com/cbrgm/hclocal/pkg/b64"
)

// Chain holds the two independent rolling MAC states for one session
// direction pair and performs the encrypt/decrypt transforms of §4.1.
// The zero value is not usable; use New.
//
// Encrypt and Decrypt are each safe for concurrent use on their own, but
// §5 requires outbound frames to be emitted in MAC-chain order: callers
// with multiple concurrent senders must serialise "compute MAC, advance
// last_tx_hmac, hand bytes to the socket" as one region — Chain only
// guarantees the MAC bookkeeping is atomic, not that two goroutines won't
// interleave their writes to the socket after Encrypt returns. The
// session package enforces the wider guarantee with its own send-side
// mutex around the whole encodeAndSend sequence.
type Chain struct {
	keys Keys

	txMu      sync.Mutex
	lastTxMAC []byte

	rxMu      sync.Mutex
	lastRxMAC []byte
}

// New returns a Chain with both rolling MAC states reset to 16 zero
// bytes, as required at the start of every session (and re-derived fresh
// on every reconnect — the PSK-derived keys are deterministic but the
// chain always restarts at zero).
func New(keys Keys) *Chain {
	return &Chain{
		keys:      keys,
		lastTxMAC: make([]byte, tagSize),
		lastRxMAC: make([]byte, tagSize),
	}
}

// Encrypt pads, encrypts and MAC-chains one cleartext JSON message into
// one WebSocket binary frame.
func (c *Chain) Encrypt(cleartext []byte) ([]byte, error) {
	if len(cleartext) == 0 {
		return nil, ErrEmptyPlaintext
	}
	padded, err := pad(cleartext)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(c.keys.EncKey)
	if err != nil {
		return nil, err
	}
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, c.keys.IV).CryptBlocks(ciphertext, padded)

	c.txMu.Lock()
	defer c.txMu.Unlock()

	tag := c.computeTag(dirTx, c.lastTxMAC, ciphertext)
	c.lastTxMAC = tag

	frame := make([]byte, 0, len(ciphertext)+tagSize)
	frame = append(frame, ciphertext...)
	frame = append(frame, tag...)
	return frame, nil
}

// Decrypt verifies and decrypts one inbound WebSocket binary frame back
// into its cleartext JSON message. On a MAC mismatch or malformed frame
// it returns a ProtocolError and leaves last_rx_hmac unchanged — the
// caller is expected to log and drop the frame, not close the session.
func (c *Chain) Decrypt(frame []byte) ([]byte, error) {
	if len(frame) < 32 {
		return nil, ErrFrameTooShort
	}
	if len(frame)%16 != 0 {
		return nil, ErrFrameMisaligned
	}

	ciphertext := frame[:len(frame)-tagSize]
	recvTag := frame[len(frame)-tagSize:]

	c.rxMu.Lock()
	calc := c.computeTag(dirRx, c.lastRxMAC, ciphertext)
	if !b64.ConstantTimeEqual(recvTag, calc) {
		c.rxMu.Unlock()
		return nil, ErrMACMismatch
	}
	c.lastRxMAC = recvTag
	c.rxMu.Unlock()

	block, err := aes.NewCipher(c.keys.EncKey)
	if err != nil {
		return nil, err
	}
	plainPadded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, c.keys.IV).CryptBlocks(plainPadded, ciphertext)

	return unpad(plainPadded)
}

func (c *Chain) computeTag(dir byte, prevTag, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, c.keys.MACKey)
	h.Write(c.keys.IV)
	h.Write([]byte{dir})
	h.Write(prevTag)
	h.Write(ciphertext)
	return h.Sum(nil)[:tagSize]
}

// pad implements the custom (non-PKCS#7) padding scheme of §4.1: a 0x00
// separator, random filler, then a trailing length byte, sized so the
// total buffer is a multiple of 16 with between 2 and 32 bytes overhead.
func pad(cleartext []byte) ([]byte, error) {
	padLen := 16 - (len(cleartext) % 16)
	if padLen == 1 {
		padLen += 16
	}

	filler := make([]byte, padLen-2)
	if len(filler) > 0 {
		if _, err := rand.Read(filler); err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, len(cleartext)+padLen)
	out = append(out, cleartext...)
	out = append(out, 0x00)
	out = append(out, filler...)
	out = append(out, byte(padLen))
	return out, nil
}

// unpad reverses pad, trusting the trailing length byte the appliance
// wrote. It does not re-validate the 0x00 separator or filler contents —
// the MAC already authenticated the whole padded buffer.
func unpad(padded []byte) ([]byte, error) {
	if len(padded) == 0 {
		return nil, ErrFrameTooShort
	}
	padLen := int(padded[len(padded)-1])
	if padLen < 2 || padLen > len(padded) {
		return nil, ErrFrameMisaligned
	}
	return padded[:len(padded)-padLen], nil
}
