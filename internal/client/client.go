// Package client implements the signed REST client for the broker API.
//
// Every operation follows one protocol skeleton: resolve the endpoint for
// the selected network, draw a nonce, marshal the request body, sign the
// exact body bytes, POST, and map the HTTP status onto the error taxonomy.
// Operations never panic and never leak transport errors; callers receive
// either a typed result or an errs envelope.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/coachpo/brokerlink/config"
	"github.com/coachpo/brokerlink/errs"
	"github.com/coachpo/brokerlink/internal/auth"
	"github.com/coachpo/brokerlink/internal/observability"
	"github.com/coachpo/brokerlink/internal/telemetry"
)

const maxResponseBytes = 1 << 20

// signatureHeader carries the HMAC signature of the exact request body bytes.
const signatureHeader = "X-Signature"

// Client issues REST calls against the broker API.
type Client struct {
	settings config.Settings
	http     *http.Client
	creds    auth.CredentialStore
	nonces   *auth.NonceSource
	limiter  *rate.Limiter
	log      observability.Logger
	metrics  *telemetry.RequestMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithMetrics attaches request instrumentation.
func WithMetrics(metrics *telemetry.RequestMetrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithRateLimit paces outgoing requests.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithNonceSource injects a shared nonce source. Sessions that sign through
// multiple clients must share one source to preserve monotonicity.
func WithNonceSource(nonces *auth.NonceSource) Option {
	return func(c *Client) {
		if nonces != nil {
			c.nonces = nonces
		}
	}
}

// New constructs a client for the given settings and credential store.
// Credentials must be present in the store before any authenticated call.
func New(settings config.Settings, creds auth.CredentialStore, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		http:     &http.Client{Timeout: settings.HTTPTimeout},
		creds:    creds,
		nonces:   auth.NewNonceSource(),
		limiter:  nil,
		log:      observability.Log(),
		metrics:  nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// signedBody is embedded by every authenticated request payload.
type signedBody struct {
	Token string `json:"token"`
	Nonce int64  `json:"nonce"`
}

func (b *signedBody) setAuth(token string, nonce int64) {
	b.Token = token
	b.Nonce = nonce
}

type authenticated interface {
	setAuth(token string, nonce int64)
}

// postPublic sends an unauthenticated operation.
func (c *Client) postPublic(ctx context.Context, operation string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.New(operation, errs.KindNetwork, errs.WithCause(err))
	}
	return c.send(ctx, operation, payload, "", out)
}

// postSigned draws a nonce, signs the exact serialized body, and sends it.
func (c *Client) postSigned(ctx context.Context, operation string, body authenticated, out any) error {
	creds, ok := c.creds.Load()
	if !ok {
		return errs.New(operation, errs.KindAuth,
			errs.WithMessage("credentials not configured"))
	}
	body.setAuth(creds.Token, c.nonces.Next())

	payload, err := json.Marshal(body)
	if err != nil {
		return errs.New(operation, errs.KindNetwork, errs.WithCause(err))
	}

	// The signature covers the same byte slice handed to the transport.
	signer := auth.NewSigner(creds.Secret)
	signature := signer.Sign(payload)
	signer.Wipe()

	return c.send(ctx, operation, payload, signature, out)
}

func (c *Client) send(ctx context.Context, operation string, payload []byte, signature string, out any) error {
	base, ok := c.settings.RESTBaseURL()
	if !ok {
		return c.finish(ctx, operation, "network", time.Now(),
			errs.New(operation, errs.KindNetwork,
				errs.WithMessage("no endpoint configured for network "+string(c.settings.Network))))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.finish(ctx, operation, "network", time.Now(),
				errs.New(operation, errs.KindNetwork, errs.WithCause(err)))
		}
	}

	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/"+operation, bytes.NewReader(payload))
	if err != nil {
		return c.finish(ctx, operation, "network", started,
			errs.New(operation, errs.KindNetwork, errs.WithCause(err)))
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.finish(ctx, operation, "network", started,
			errs.New(operation, errs.KindNetwork, errs.WithCause(err)))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.finish(ctx, operation, "network", started,
			errs.New(operation, errs.KindNetwork, errs.WithCause(err)))
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return c.finish(ctx, operation, "network", started,
					errs.New(operation, errs.KindNetwork, errs.WithHTTP(resp.StatusCode), errs.WithCause(err)))
			}
		}
		return c.finish(ctx, operation, "ok", started, nil)
	case http.StatusBadRequest:
		return c.finish(ctx, operation, "auth", started,
			errs.New(operation, errs.KindAuth,
				errs.WithHTTP(resp.StatusCode),
				errs.WithMessage(authMessage(body))))
	default:
		c.log.Warn("unexpected status",
			observability.F("operation", operation),
			observability.F("status", resp.StatusCode))
		return c.finish(ctx, operation, "network", started,
			errs.New(operation, errs.KindNetwork, errs.WithHTTP(resp.StatusCode)))
	}
}

func (c *Client) finish(ctx context.Context, operation, outcome string, started time.Time, err error) error {
	c.metrics.RecordRequest(ctx, operation, outcome, time.Since(started))
	return err
}

// authMessage extracts the server message from a 400 response body: the
// "message" field when the body parses as JSON, else the raw text verbatim.
func authMessage(body []byte) string {
	var envelope struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != nil {
		return *envelope.Message
	}
	return string(body)
}
