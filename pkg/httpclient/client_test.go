package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	client := NewRestyClient(5 * time.Second)
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"X-Test": "yes"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode())
	assert.Equal(t, "short and stout", string(resp.Body()))
}

func TestRestyClientInsecureTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	strict := NewRestyClient(5 * time.Second)
	_, err := strict.Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)

	relaxed := NewRestyClientWithOptions(Options{Timeout: 5 * time.Second, InsecureSkipVerify: true})
	resp, err := relaxed.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body()))
}

func TestRestyClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewRestyClient(time.Second).Get(context.Background(), url, nil)
	assert.Error(t, err)
}
