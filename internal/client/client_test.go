package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/brokerlink/config"
	"github.com/coachpo/brokerlink/errs"
	"github.com/coachpo/brokerlink/internal/auth"
)

const (
	testToken  = "api-token"
	testSecret = "api-secret"
)

func testSettings(baseURL string) config.Settings {
	return config.Settings{
		Network: config.NetworkMainnet,
		Networks: map[config.Network]config.Endpoints{
			config.NetworkMainnet: {RESTBaseURL: baseURL},
		},
		HTTPTimeout: 5 * time.Second,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := auth.NewMemoryStore()
	store.Store(auth.Credentials{Token: testToken, Secret: testSecret})
	return New(testSettings(server.URL), store), server
}

func TestPostSignedSignsExactBodyBytes(t *testing.T) {
	var gotBody []byte
	var gotSignature string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Signature")
		require.Equal(t, "/user/info", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"email":"a@b.c","kycValidated":true}`))
	})

	info, err := client.UserInfo(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "a@b.c", info.Email)
	require.True(t, info.KYCValidated)

	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(gotBody)
	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)

	var body struct {
		Token string `json:"token"`
		Nonce int64  `json:"nonce"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &body))
	require.Equal(t, testToken, body.Token)
	require.Positive(t, body.Nonce)
}

func TestPostSignedNoncesIncreaseAcrossCalls(t *testing.T) {
	var nonces []int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Nonce int64 `json:"nonce"`
		}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		nonces = append(nonces, body.Nonce)
		_, _ = w.Write([]byte(`{}`))
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := client.UserInfo(ctx, "")
		require.NoError(t, err)
	}

	require.Len(t, nonces, 5)
	for i := 1; i < len(nonces); i++ {
		require.Greater(t, nonces[i], nonces[i-1])
	}
}

func TestPostPublicOmitsSignature(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("X-Signature"))
		raw, _ := io.ReadAll(r.Body)
		require.NotContains(t, string(raw), `"nonce"`)
		w.WriteHeader(http.StatusOK)
	})

	err := client.Register(context.Background(), RegisterParams{Email: "a@b.c"})
	require.NoError(t, err)
}

func TestBadRequestMapsToAuthError(t *testing.T) {
	t.Run("json message", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"bad nonce"}`))
		})
		_, err := client.UserInfo(context.Background(), "")
		require.True(t, errs.IsAuth(err))
		require.Equal(t, "bad nonce", errs.UserMessage(err))
	})

	t.Run("plain text body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("oops"))
		})
		_, err := client.UserInfo(context.Background(), "")
		require.True(t, errs.IsAuth(err))
		require.Equal(t, "oops", errs.UserMessage(err))
	})

	t.Run("whitespace-padded body passes through verbatim", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("  rate limited \n"))
		})
		_, err := client.UserInfo(context.Background(), "")
		require.True(t, errs.IsAuth(err))
		require.Equal(t, "  rate limited \n", errs.UserMessage(err))
	})
}

func TestUnexpectedStatusMapsToNetworkError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := client.UserInfo(context.Background(), "")
	require.True(t, errs.IsNetwork(err))

	var e *errs.E
	require.ErrorAs(t, err, &e)
	require.Equal(t, http.StatusInternalServerError, e.HTTP)
}

func TestMalformedResponseMapsToNetworkError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"teleported"}`))
	})
	_, err := client.OrderStatus(context.Background(), "tok-1")
	require.True(t, errs.IsNetwork(err))
}

func TestMissingEndpointFailsBeforeDialing(t *testing.T) {
	settings := testSettings("")
	settings.Network = config.NetworkTestnet

	store := auth.NewMemoryStore()
	store.Store(auth.Credentials{Token: testToken, Secret: testSecret})
	client := New(settings, store)

	_, err := client.UserInfo(context.Background(), "")
	require.True(t, errs.IsNetwork(err))
	require.Contains(t, err.Error(), "no endpoint configured")
}

func TestMissingCredentialsFailsBeforeSending(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	client := New(testSettings(server.URL), auth.NewMemoryStore())
	_, err := client.UserInfo(context.Background(), "")
	require.True(t, errs.IsAuth(err))
	require.Equal(t, "credentials not configured", errs.UserMessage(err))
	require.False(t, called)
}
