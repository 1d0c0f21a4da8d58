package auth

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Signer computes request signatures over serialized request bodies.
// It stores the secret as []byte to allow wiping after a session ends.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given API secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex-encoded HMAC-SHA512 signature of body.
// The caller must pass the exact byte sequence that will be transmitted:
// the server verifies the literal wire bytes, so any re-encoding between
// signing and sending invalidates the request.
func (s *Signer) Sign(body []byte) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Wipe clears the secret from memory.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	for i := range s.secret {
		s.secret[i] = 0
	}
}
