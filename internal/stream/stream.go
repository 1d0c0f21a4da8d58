// Package stream maintains the authenticated account event connection.
//
// A Stream dials the broker websocket endpoint, authenticates with a signed
// hello frame, and delivers decoded order events on a channel. The
// connection reconnects with exponential backoff; after Close no further
// events are delivered.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/sourcegraph/conc"

	"github.com/coachpo/brokerlink/config"
	"github.com/coachpo/brokerlink/errs"
	"github.com/coachpo/brokerlink/internal/auth"
	"github.com/coachpo/brokerlink/internal/observability"
	"github.com/coachpo/brokerlink/internal/telemetry"
)

// Stream consumes the account event channel for one credential pair.
type Stream struct {
	url     string
	creds   auth.CredentialStore
	nonces  *auth.NonceSource
	log     observability.Logger
	metrics *telemetry.RequestMetrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	events chan OrderEvent
	errors chan error

	startOnce sync.Once
	closeOnce sync.Once
}

// Option configures a Stream.
type Option func(*Stream)

// WithLogger overrides the stream logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Stream) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithMetrics attaches event instrumentation.
func WithMetrics(metrics *telemetry.RequestMetrics) Option {
	return func(s *Stream) {
		s.metrics = metrics
	}
}

// WithNonceSource injects the session nonce source. The stream hello frame
// draws from the same counter as REST calls to preserve monotonicity.
func WithNonceSource(nonces *auth.NonceSource) Option {
	return func(s *Stream) {
		if nonces != nil {
			s.nonces = nonces
		}
	}
}

// New constructs a stream for the configured network. It does not dial
// until Start is called.
func New(settings config.Settings, creds auth.CredentialStore, opts ...Option) (*Stream, error) {
	url, ok := settings.WebsocketURL()
	if !ok {
		return nil, errs.New("stream/connect", errs.KindNetwork,
			errs.WithMessage("no websocket endpoint configured for network "+string(settings.Network)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		url:    url,
		creds:  creds,
		nonces: auth.NewNonceSource(),
		log:    observability.Log(),
		ctx:    ctx,
		cancel: cancel,
		events: make(chan OrderEvent),
		errors: make(chan error, 4),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Events returns the decoded order event channel. It is closed by Close.
func (s *Stream) Events() <-chan OrderEvent { return s.events }

// Errors returns the non-fatal error channel. Errors are dropped when the
// channel is full; the connection keeps retrying regardless.
func (s *Stream) Errors() <-chan error { return s.errors }

// Start begins dialing and delivering events. Safe to call once.
func (s *Stream) Start() {
	s.startOnce.Do(func() {
		s.wg.Go(s.run)
	})
}

// Close tears down the connection and waits for the delivery goroutine to
// stop. No event is delivered after Close returns.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		close(s.events)
		close(s.errors)
	})
}

// run maintains the connection with automatic reconnection and exponential backoff.
func (s *Stream) run() {
	backoffCfg := backoff.NewExponentialBackOff()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.Dial(s.ctx, s.url, nil)
		if err != nil {
			s.reportError(errs.New("stream/connect", errs.KindNetwork, errs.WithCause(err)))
			if !s.sleep(backoffCfg.NextBackOff()) {
				return
			}
			continue
		}

		if err := s.hello(conn); err != nil {
			s.reportError(err)
			_ = conn.Close(websocket.StatusNormalClosure, "")
			if !s.sleep(backoffCfg.NextBackOff()) {
				return
			}
			continue
		}

		backoffCfg.Reset()
		s.log.Info("account stream connected", observability.F("url", s.url))

		if err := s.readLoop(conn); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.reportError(err)
		}

		if !s.sleep(backoffCfg.NextBackOff()) {
			return
		}
	}
}

type helloFrame struct {
	Token     string `json:"token"`
	Nonce     int64  `json:"nonce"`
	Signature string `json:"signature,omitempty"`
}

// hello authenticates the connection. The signature covers the serialized
// token and nonce, the same scheme REST requests use for their bodies.
func (s *Stream) hello(conn *websocket.Conn) error {
	creds, ok := s.creds.Load()
	if !ok {
		return errs.New("stream/connect", errs.KindAuth,
			errs.WithMessage("credentials not configured"))
	}

	frame := helloFrame{Token: creds.Token, Nonce: s.nonces.Next()}
	unsigned, err := json.Marshal(frame)
	if err != nil {
		return errs.New("stream/connect", errs.KindNetwork, errs.WithCause(err))
	}

	signer := auth.NewSigner(creds.Secret)
	frame.Signature = signer.Sign(unsigned)
	signer.Wipe()

	payload, err := json.Marshal(frame)
	if err != nil {
		return errs.New("stream/connect", errs.KindNetwork, errs.WithCause(err))
	}

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return errs.New("stream/connect", errs.KindNetwork, errs.WithCause(err))
	}
	return nil
}

func (s *Stream) readLoop(conn *websocket.Conn) error {
	defer func() {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(s.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return context.Canceled
			}
			return errs.New("stream/read", errs.KindNetwork, errs.WithCause(err))
		}
		if msgType != websocket.MessageText {
			continue
		}

		event, err := DecodeEvent(data)
		if err != nil {
			s.reportError(err)
			continue
		}

		select {
		case s.events <- event:
			s.metrics.RecordStreamEvent(s.ctx, string(event.Kind))
		case <-s.ctx.Done():
			return context.Canceled
		}
	}
}

func (s *Stream) sleep(d time.Duration) bool {
	select {
	case <-s.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (s *Stream) reportError(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
