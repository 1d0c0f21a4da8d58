// Package auth provides request signing primitives for the broker API:
// a monotonic nonce source, an HMAC body signer, and credential storage.
package auth

import (
	"sync"
	"time"
)

// NonceSource issues strictly increasing nonces for signed requests.
// Nonces derive from wall-clock milliseconds; when the clock stalls or moves
// backwards the source advances past the last issued value instead.
type NonceSource struct {
	mu    sync.Mutex
	last  int64
	clock func() time.Time
}

// NewNonceSource constructs a nonce source backed by the system clock.
func NewNonceSource() *NonceSource {
	return &NonceSource{clock: time.Now}
}

// NewNonceSourceWithClock constructs a nonce source with an injectable clock.
func NewNonceSourceWithClock(clock func() time.Time) *NonceSource {
	if clock == nil {
		clock = time.Now
	}
	return &NonceSource{clock: clock}
}

// Next returns the next nonce. Concurrent callers observe strictly
// increasing values; no value is ever issued twice within a process.
func (n *NonceSource) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	nonce := n.clock().UnixMilli()
	if nonce <= n.last {
		nonce = n.last + 1
	}
	n.last = nonce
	return nonce
}
