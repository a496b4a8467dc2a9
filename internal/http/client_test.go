package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projgen/projgen/internal/config"
)

func TestNewClient_SendsAcceptAndKeepsCookies(t *testing.T) {
	var sawCookie atomic.Bool
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/json")
		if c, err := r.Cookie("session"); err == nil && c.Value == "abc" {
			sawCookie.Store(true)
		}
		nethttp.SetCookie(w, &nethttp.Cookie{Name: "session", Value: "abc", Path: "/"})
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Endpoint = srv.URL
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL + "/generate")
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	assert.True(t, sawCookie.Load(), "cookie set by first response should be sent on the second request")
}

func TestNewClient_PassesThroughServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		w.WriteHeader(nethttp.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	}))
	defer srv.Close()

	cfg := config.Default()
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Post(srv.URL, "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "boom")
	assert.Equal(t, int32(1), calls.Load(), "retries default to zero")
}

func TestNewClient_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body), "body must be replayed on retry")
		if calls.Add(1) == 1 {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Retries = 2
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Post(srv.URL, "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewClient_UnsupportedProxyMode(t *testing.T) {
	cfg := config.Default()
	cfg.ProxyMode = "socks"

	_, err := NewClient(cfg, nil)
	assert.Error(t, err)
}
