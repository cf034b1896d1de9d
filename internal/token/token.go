// Package token keeps the bearer token in durable local storage and decodes
// the claims the client needs: expiry and username.
//
// Decoding never verifies the signature; the client holds no key and only
// reads its own session. Inspect reports an explicit Result so callers decide
// how to treat absent or malformed tokens, while IsValid and Username keep the
// swallow-and-return-false contract used by routing and views.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/gk-share/internal/errs"
	"github.com/and161185/gk-share/internal/repository"
)

// StorageKey is the fixed key the token is persisted under.
const StorageKey = "token"

// Claims is the token payload as issued by the backend.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Status classifies a decoded token.
type Status int

const (
	// Absent means no token is stored.
	Absent Status = iota
	// Malformed means a token is stored but cannot be decoded.
	Malformed
	// Decoded means the payload was read; expiry is checked separately.
	Decoded
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "absent"
	case Malformed:
		return "malformed"
	case Decoded:
		return "decoded"
	default:
		return "unknown"
	}
}

// Result is the outcome of decoding a raw token.
type Result struct {
	Status Status
	Raw    string
	Claims Claims // zero unless Status == Decoded
	Err    error  // errs.ErrTokenAbsent or wraps errs.ErrTokenMalformed
}

// ValidAt reports whether the token decoded and expires strictly after now.
// A token without an exp claim is never valid.
func (r Result) ValidAt(now time.Time) bool {
	if r.Status != Decoded || r.Claims.ExpiresAt == nil {
		return false
	}
	return r.Claims.ExpiresAt.Time.After(now)
}

// Username returns the username claim of a decoded token.
func (r Result) Username() (string, bool) {
	if r.Status != Decoded || r.Claims.Username == "" {
		return "", false
	}
	return r.Claims.Username, true
}

var parser = jwt.NewParser()

// Inspect decodes raw without verifying its signature.
func Inspect(raw string) Result {
	if raw == "" {
		return Result{Status: Absent, Err: errs.ErrTokenAbsent}
	}
	var c Claims
	_, _, err := parser.ParseUnverified(raw, &c)
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		// missing or unknown alg; the payload is still readable
		c, err = decodePayload(raw)
	}
	if err != nil {
		return Result{Status: Malformed, Raw: raw, Err: &MalformedError{Cause: err}}
	}
	return Result{Status: Decoded, Raw: raw, Claims: c}
}

// decodePayload reads the claims segment of raw ignoring the header.
func decodePayload(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, jwt.ErrTokenMalformed
	}
	b, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("decode payload: %w", err)
	}
	var c Claims
	if err := json.Unmarshal(b, &c); err != nil {
		return Claims{}, fmt.Errorf("decode payload: %w", err)
	}
	return c, nil
}

// MalformedError carries the decode failure of a stored token.
type MalformedError struct{ Cause error }

func (e *MalformedError) Error() string { return "token malformed: " + e.Cause.Error() }

// Is matches errs.ErrTokenMalformed.
func (e *MalformedError) Is(target error) bool { return target == errs.ErrTokenMalformed }

func (e *MalformedError) Unwrap() error { return e.Cause }

// Keeper persists the token and answers validity questions about it.
type Keeper struct {
	repo repository.KVRepository
	now  func() time.Time
}

// NewKeeper returns a Keeper over repo using the wall clock.
func NewKeeper(repo repository.KVRepository) *Keeper {
	return &Keeper{repo: repo, now: time.Now}
}

// WithClock returns a copy of k reading time from now.
func (k *Keeper) WithClock(now func() time.Time) *Keeper {
	return &Keeper{repo: k.repo, now: now}
}

// Set persists tok.
func (k *Keeper) Set(ctx context.Context, tok string) error {
	return k.repo.Set(ctx, StorageKey, tok)
}

// Get returns the stored token, ok is false when none is stored.
func (k *Keeper) Get(ctx context.Context) (string, bool, error) {
	tok, ok, err := k.repo.Get(ctx, StorageKey)
	if err != nil || !ok || tok == "" {
		return "", false, err
	}
	return tok, true, nil
}

// Clear removes the stored token.
func (k *Keeper) Clear(ctx context.Context) error {
	return k.repo.Delete(ctx, StorageKey)
}

// Inspect decodes the stored token. Only storage failures return an error.
func (k *Keeper) Inspect(ctx context.Context) (Result, error) {
	tok, _, err := k.Get(ctx)
	if err != nil {
		return Result{}, err
	}
	return Inspect(tok), nil
}

// IsValid reports whether a decodable, unexpired token is stored.
// Any failure reads as false.
func (k *Keeper) IsValid(ctx context.Context) bool {
	r, err := k.Inspect(ctx)
	if err != nil {
		return false
	}
	return r.ValidAt(k.now())
}

// Username returns the username claim of the stored token.
// Any failure reads as absent.
func (k *Keeper) Username(ctx context.Context) (string, bool) {
	r, err := k.Inspect(ctx)
	if err != nil {
		return "", false
	}
	return r.Username()
}
