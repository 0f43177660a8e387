package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

const anonContextKey contextKey = "anonymous"

// WithoutAuth marks requests that must never carry a bearer token: login,
// signup, refresh and the password-reset endpoints. A 401 on these means the
// supplied credentials were rejected, not that the session died, so they are
// also exempt from the unauthenticated hook.
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonContextKey, true)
}

func isAnonymous(ctx context.Context) bool {
	anon, _ := ctx.Value(anonContextKey).(bool)
	return anon
}

// TokenSource supplies the current access token for outgoing requests.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Transport is the http.RoundTripper chain for Account API traffic. It
// attaches the bearer token when one is held, tags every request with an
// X-Request-Id, retries idempotent requests on transient failures, and
// reports server-confirmed token rejection through OnUnauthenticated.
type Transport struct {
	// Base performs the actual round trip. Defaults to
	// http.DefaultTransport; pass NewCachingTransport to honor
	// Cache-Control on GETs.
	Base http.RoundTripper

	// Tokens supplies the bearer token. Nil means no authentication.
	Tokens TokenSource

	// OnUnauthenticated fires once per 401 response to a request that
	// carried a bearer token. The session manager registers its forced
	// sign-out here.
	OnUnauthenticated func()

	// MaxTries bounds attempts for idempotent requests. Defaults to 3.
	// Non-idempotent requests are always attempted exactly once.
	MaxTries uint

	// RetryInterval is the initial backoff delay. Defaults to 500ms.
	RetryInterval time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	out := req.Clone(req.Context())
	requestID := uuid.NewString()
	out.Header.Set("X-Request-Id", requestID)

	bearer := false
	if t.Tokens != nil && !isAnonymous(req.Context()) {
		if token, ok := t.Tokens.AccessToken(); ok {
			out.Header.Set("Authorization", "Bearer "+token)
			bearer = true
		}
	}

	resp, err := t.send(out)

	evt := log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", requestID).
		Dur("duration", time.Since(started))
	if err != nil {
		evt.Err(err).Msg("api call failed")
		return nil, err
	}
	evt.Int("status", resp.StatusCode).Msg("api call")

	if resp.StatusCode == http.StatusUnauthorized && bearer && t.OnUnauthenticated != nil {
		t.OnUnauthenticated()
	}

	return resp, nil
}

// send dispatches the request, retrying idempotent requests on transport
// errors and transient upstream statuses.
func (t *Transport) send(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base().RoundTrip(req)
	}

	operation := func() (*http.Response, error) {
		resp, err := t.base().RoundTrip(req)
		if err != nil {
			return nil, err
		}
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			resp.Body.Close()
			return nil, fmt.Errorf("transient upstream error: %s", resp.Status)
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	if t.RetryInterval > 0 {
		bo.InitialInterval = t.RetryInterval
	}

	maxTries := t.MaxTries
	if maxTries == 0 {
		maxTries = 3
	}

	return backoff.Retry(req.Context(), operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(maxTries))
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
