package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) AccessToken() (string, bool) {
	return string(s), s != ""
}

func TestTransport_BearerInjection(t *testing.T) {
	t.Run("attaches the bearer token when one is held", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
		}))
		defer server.Close()

		client := &http.Client{Transport: &Transport{Tokens: staticTokens("T1")}}
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Bearer T1", gotAuth)
	})

	t.Run("never attaches a bearer to anonymous requests", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
		}))
		defer server.Close()

		client := &http.Client{Transport: &Transport{Tokens: staticTokens("T1")}}
		req, err := http.NewRequestWithContext(WithoutAuth(context.Background()), http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Empty(t, gotAuth)
	})

	t.Run("sends no bearer without a token source", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
		}))
		defer server.Close()

		client := &http.Client{Transport: &Transport{}}
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Empty(t, gotAuth)
	})
}

func TestTransport_RequestID(t *testing.T) {
	ids := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		assert.NotEmpty(t, id)
		ids[id] = true
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{}}
	for range 3 {
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// A fresh ID per request.
	assert.Len(t, ids, 3)
}

func TestTransport_UnauthenticatedHook(t *testing.T) {
	t.Run("fires on 401 to a bearer request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		var fired atomic.Int32
		client := &http.Client{Transport: &Transport{
			Tokens:            staticTokens("T1"),
			OnUnauthenticated: func() { fired.Add(1) },
		}}

		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("does not fire for anonymous requests", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		var fired atomic.Int32
		client := &http.Client{Transport: &Transport{
			Tokens:            staticTokens("T1"),
			OnUnauthenticated: func() { fired.Add(1) },
		}}

		req, err := http.NewRequestWithContext(WithoutAuth(context.Background()), http.MethodPost, server.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, int32(0), fired.Load())
	})
}

func TestTransport_TransientRetry(t *testing.T) {
	t.Run("retries GET on transient upstream errors", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := &http.Client{Transport: &Transport{RetryInterval: time.Millisecond}}
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("never retries POST", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := &http.Client{Transport: &Transport{RetryInterval: time.Millisecond}}
		resp, err := client.Post(server.URL, "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}
