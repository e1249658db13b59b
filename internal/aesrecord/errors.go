package aesrecord

import "errors"

// Sentinel ProtocolError causes (§7): a malformed frame or a MAC
// mismatch. Callers should log and drop the frame, not tear the session
// down — the rolling MAC state is not advanced on any of these.
var (
	ErrInvalidIV       = errors.New("aesrecord: decoded iv is not 16 bytes")
	ErrFrameTooShort   = errors.New("aesrecord: frame shorter than 32 bytes")
	ErrFrameMisaligned = errors.New("aesrecord: frame length is not a multiple of 16")
	ErrMACMismatch     = errors.New("aesrecord: mac verification failed")
	ErrEmptyPlaintext  = errors.New("aesrecord: cannot encrypt empty plaintext")
)
