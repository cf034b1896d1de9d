// Package router maps client routes to views and guards the protected ones.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/gk-share/internal/errs"
	"github.com/and161185/gk-share/internal/state"
)

// Route is a client-side path.
type Route string

// Known routes.
const (
	Root     Route = "/"
	Login    Route = "/login"
	Register Route = "/register"
	Upload   Route = "/upload"
)

// RegistrationRedirectDelay is how long the registration view lingers on its
// success message before moving to the login view.
const RegistrationRedirectDelay = 2 * time.Second

var protected = map[Route]bool{Upload: true}

var known = map[Route]bool{Root: true, Login: true, Register: true, Upload: true}

// TokenChecker answers whether the stored token is currently usable.
type TokenChecker interface {
	IsValid(ctx context.Context) bool
}

// Router resolves navigation requests.
type Router struct {
	store  *state.Store
	tokens TokenChecker
	delay  time.Duration
}

// New returns a router reading auth from store and token validity from tokens.
func New(store *state.Store, tokens TokenChecker) *Router {
	return &Router{store: store, tokens: tokens, delay: RegistrationRedirectDelay}
}

// WithDelay returns a copy of r using d as the registration redirect delay.
func (r *Router) WithDelay(d time.Duration) *Router {
	cp := *r
	cp.delay = d
	return &cp
}

// Parse normalises path into a known route.
func Parse(path string) (Route, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return Root, nil
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	rt := Route(p)
	if !known[rt] {
		return "", fmt.Errorf("%w: %s", errs.ErrUnknownRoute, path)
	}
	return rt, nil
}

// Protected reports whether rt requires an authenticated session.
func Protected(rt Route) bool { return protected[rt] }

// Allow is the guard: a protected route is reachable only when auth is
// authenticated. It returns the route to render instead when not allowed.
func Allow(auth state.AuthState, rt Route) (Route, bool) {
	if Protected(rt) && !auth.IsAuthenticated {
		return Login, false
	}
	return rt, true
}

// Resolve returns the view route for path after applying the root redirect
// and the guard. An authenticated session skips the login view.
func (r *Router) Resolve(ctx context.Context, path string) (Route, error) {
	rt, err := Parse(path)
	if err != nil {
		return "", err
	}
	if rt == Root {
		if r.tokens != nil && r.tokens.IsValid(ctx) {
			return Upload, nil
		}
		return Login, nil
	}
	auth := r.store.Snapshot().Auth
	if rt == Login && auth.IsAuthenticated {
		return Upload, nil
	}
	dst, _ := Allow(auth, rt)
	return dst, nil
}

// AfterLogin is where a successful login lands.
func (r *Router) AfterLogin() Route { return Upload }

// AfterLogout is where a logout lands.
func (r *Router) AfterLogout() Route { return Login }

// AfterRegistration waits out the redirect delay and returns the login
// route. A cancelled ctx stops the timer and returns ctx's error.
func (r *Router) AfterRegistration(ctx context.Context) (Route, error) {
	if r.delay <= 0 {
		return Login, nil
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
		return Login, nil
	}
}
