package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// TokenSource yields the bearer token for the next request.
type TokenSource interface {
	Get(ctx context.Context) (token string, ok bool, err error)
}

// RequestIDHeader carries a per-request UUID for backend log correlation.
const RequestIDHeader = "X-Request-ID"

// bearerTransport injects "Authorization: Bearer <token>" when a token is stored.
// The token is read on every request so login and logout take effect immediately.
type bearerTransport struct {
	tokens TokenSource
	next   http.RoundTripper
}

func (b *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, ok, err := b.tokens.Get(req.Context())
	if err != nil || !ok {
		// storage trouble means an anonymous request, the backend decides
		return b.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+tok)
	return b.next.RoundTrip(r)
}

// requestIDTransport stamps X-Request-ID unless the caller set one.
type requestIDTransport struct {
	next http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(req)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, id.String())
	return t.next.RoundTrip(r)
}

// loggingTransport logs request metadata, never payloads or headers.
type loggingTransport struct {
	log  *zap.Logger
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("dur", time.Since(start)),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
	}
	if err != nil {
		t.log.Warn("http", append(fields, zap.Error(err))...)
		return nil, err
	}
	t.log.Info("http", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}

// chain builds request id -> logging -> bearer -> base, outermost first.
func chain(base http.RoundTripper, tokens TokenSource, log *zap.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	var rt http.RoundTripper = base
	if tokens != nil {
		rt = &bearerTransport{tokens: tokens, next: rt}
	}
	rt = &loggingTransport{log: log, next: rt}
	return &requestIDTransport{next: rt}
}
