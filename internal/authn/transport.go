// Package authn attaches the session's bearer token to outgoing API requests
// and recovers once from an expired token by refreshing it.
package authn

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/authdeck/authdeck/internal/gateway"
)

// TokenSource yields the current bearer token, "" when signed out
type TokenSource interface {
	Token() string
}

// Refresher renews the session. A failed refresh has already signed the
// session out when RefreshToken returns.
type Refresher interface {
	RefreshToken(ctx context.Context) (*gateway.AuthResponse, error)
}

// Transport is an http.RoundTripper that authenticates requests. A request
// sent with a token and rejected with 401 triggers exactly one refresh and
// one retry; the retried response is returned as is.
type Transport struct {
	base      http.RoundTripper
	tokens    TokenSource
	refresher Refresher
	logger    zerolog.Logger

	refreshMu sync.Mutex
}

// NewTransport wraps base (http.DefaultTransport when nil)
func NewTransport(base http.RoundTripper, tokens TokenSource, refresher Refresher, logger zerolog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:      base,
		tokens:    tokens,
		refresher: refresher,
		logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.tokens.Token()
	if token == "" {
		return t.base.RoundTrip(req)
	}

	body, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	first, err := withToken(req, token, body)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	newToken, ok := t.renew(req.Context(), token)
	if !ok {
		return resp, nil
	}

	retry, err := withToken(req, newToken, body)
	if err != nil {
		return resp, nil
	}

	drain(resp)
	return t.base.RoundTrip(retry)
}

// renew returns a token to retry with. Concurrent requests that failed with
// the same token share one refresh: whoever gets the lock second sees the
// token has already changed and reuses it.
func (t *Transport) renew(ctx context.Context, rejected string) (string, bool) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	if current := t.tokens.Token(); current != rejected {
		return current, current != ""
	}

	if _, err := t.refresher.RefreshToken(ctx); err != nil {
		t.logger.Warn().Err(err).Msg("Token refresh failed, returning original response")
		return "", false
	}

	current := t.tokens.Token()
	return current, current != ""
}

type bodyFunc func() (io.ReadCloser, error)

// replayableBody returns a factory for fresh copies of the request body so
// the retry can resend it. The caller's request is left unmodified apart
// from its body being consumed and closed.
func replayableBody(req *http.Request) (bodyFunc, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	if req.GetBody != nil {
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func withToken(req *http.Request, token string, body bodyFunc) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if body != nil {
		rc, err := body()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		clone.Body = rc
		clone.GetBody = body
	}
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
