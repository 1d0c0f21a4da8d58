package stream

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/brokerlink/config"
	"github.com/coachpo/brokerlink/internal/auth"
	"github.com/coachpo/brokerlink/internal/schema"
)

func TestDecodeEvent(t *testing.T) {
	t.Run("order created", func(t *testing.T) {
		event, err := DecodeEvent([]byte(`{"event":"order-created","data":{"token":"ord-1","status":"created"}}`))
		require.NoError(t, err)
		require.Equal(t, EventOrderCreated, event.Kind)
		require.Equal(t, "ord-1", event.Order.Token)
	})

	t.Run("order updated", func(t *testing.T) {
		event, err := DecodeEvent([]byte(`{"event":"order-updated","data":{"token":"ord-1","status":"completed"}}`))
		require.NoError(t, err)
		require.Equal(t, EventOrderUpdated, event.Kind)
		require.Equal(t, schema.OrderStatusCompleted, event.Order.Status)
	})

	t.Run("unknown event name", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"event":"order-teleported","data":{"token":"ord-1"}}`))
		require.Error(t, err)
	})

	t.Run("missing order token", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"event":"order-created","data":{"status":"created"}}`))
		require.Error(t, err)
	})
}

func streamSettings(wsURL string) config.Settings {
	return config.Settings{
		Network: config.NetworkMainnet,
		Networks: map[config.Network]config.Endpoints{
			config.NetworkMainnet: {WebsocketURL: wsURL},
		},
	}
}

func TestStreamDeliversEventsAfterSignedHello(t *testing.T) {
	const secret = "stream-secret"

	frames := []string{
		`{"event":"order-created","data":{"token":"ord-1","status":"created"}}`,
		`{"event":"order-updated","data":{"token":"ord-1","status":"ready"}}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		_, raw, err := conn.Read(ctx)
		if err != nil {
			t.Errorf("read hello: %v", err)
			return
		}
		var hello struct {
			Token     string `json:"token"`
			Nonce     int64  `json:"nonce"`
			Signature string `json:"signature"`
		}
		if err := json.Unmarshal(raw, &hello); err != nil {
			t.Errorf("decode hello: %v", err)
			return
		}
		unsigned, _ := json.Marshal(struct {
			Token string `json:"token"`
			Nonce int64  `json:"nonce"`
		}{hello.Token, hello.Nonce})
		mac := hmac.New(sha512.New, []byte(secret))
		mac.Write(unsigned)
		if hello.Signature != hex.EncodeToString(mac.Sum(nil)) {
			t.Error("hello signature mismatch")
			return
		}

		for _, frame := range frames {
			if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
				return
			}
		}
		<-ctx.Done()
	}))
	t.Cleanup(server.Close)

	store := auth.NewMemoryStore()
	store.Store(auth.Credentials{Token: "api-token", Secret: secret})

	wsURL := "ws://" + strings.TrimPrefix(server.URL, "http://")
	s, err := New(streamSettings(wsURL), store)
	require.NoError(t, err)
	s.Start()

	var got []OrderEvent
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case event := <-s.Events():
			got = append(got, event)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}

	require.Equal(t, EventOrderCreated, got[0].Kind)
	require.Equal(t, EventOrderUpdated, got[1].Kind)
	require.Equal(t, schema.OrderStatusReady, got[1].Order.Status)

	s.Close()
	_, open := <-s.Events()
	require.False(t, open)
}

func TestStreamHelloDrawsFromSharedNonceSource(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	shared := auth.NewNonceSourceWithClock(func() time.Time { return frozen })

	// A signed REST call in the same millisecond would draw this value.
	restNonce := shared.Next()

	helloNonce := make(chan int64, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		_, raw, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var hello struct {
			Nonce int64 `json:"nonce"`
		}
		if err := json.Unmarshal(raw, &hello); err != nil {
			return
		}
		helloNonce <- hello.Nonce
		<-ctx.Done()
	}))
	t.Cleanup(server.Close)

	store := auth.NewMemoryStore()
	store.Store(auth.Credentials{Token: "api-token", Secret: "stream-secret"})

	wsURL := "ws://" + strings.TrimPrefix(server.URL, "http://")
	s, err := New(streamSettings(wsURL), store, WithNonceSource(shared))
	require.NoError(t, err)
	s.Start()
	defer s.Close()

	select {
	case nonce := <-helloNonce:
		require.Greater(t, nonce, restNonce, "hello must not reuse a nonce already drawn for the key")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for hello frame")
	}
}

func TestStreamRequiresConfiguredEndpoint(t *testing.T) {
	settings := streamSettings("")
	_, err := New(settings, auth.NewMemoryStore())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no websocket endpoint configured")
}

func TestStreamRequiresCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.CloseNow()
	}))
	t.Cleanup(server.Close)

	wsURL := "ws://" + strings.TrimPrefix(server.URL, "http://")
	s, err := New(streamSettings(wsURL), auth.NewMemoryStore())
	require.NoError(t, err)
	s.Start()
	defer s.Close()

	select {
	case err := <-s.Errors():
		require.Contains(t, err.Error(), "credentials not configured")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for credential error")
	}
}
