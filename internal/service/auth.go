// Package service runs the request lifecycles of the client: each operation
// dispatches a pending action, calls the backend, and dispatches a fulfilled
// or rejected action on the store.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/gk-share/internal/errs"
	"github.com/and161185/gk-share/internal/model"
	"github.com/and161185/gk-share/internal/state"
	"github.com/and161185/gk-share/internal/token"
)

// Fixed user-facing failure messages.
const (
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
)

// AuthAPI is the part of the backend client used for authentication.
type AuthAPI interface {
	Login(ctx context.Context, cred model.Credentials) (string, error)
	Register(ctx context.Context, cred model.Credentials) error
}

// AuthService handles session restore, login, logout and registration.
type AuthService struct {
	store  *state.Store
	api    AuthAPI
	tokens *token.Keeper
	log    *zap.Logger
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(store *state.Store, api AuthAPI, tokens *token.Keeper, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{store: store, api: api, tokens: tokens, log: log}
}

// Init seeds the auth slice from the persisted token. The session counts as
// authenticated only when the token decodes and has not expired.
func (s *AuthService) Init(ctx context.Context) state.AuthState {
	tok, _, err := s.tokens.Get(ctx)
	if err != nil {
		s.log.Warn("read token", zap.Error(err))
	}
	valid := s.tokens.IsValid(ctx)
	if tok != "" && !valid {
		s.log.Debug("stored token is not valid")
	}
	return s.store.Dispatch(state.SessionRestored{Token: tok, Valid: valid}).Auth
}

// LoginUser exchanges credentials for a token and persists it.
// Every failure is reported as MsgLoginFailed.
func (s *AuthService) LoginUser(ctx context.Context, cred model.Credentials) error {
	s.store.Dispatch(state.LoginPending{})

	tok, err := s.api.Login(ctx, cred)
	if err == nil {
		err = s.tokens.Set(ctx, tok)
	}
	if err != nil {
		s.log.Info("login failed", zap.String("username", cred.Username), zap.Error(err))
		s.store.Dispatch(state.LoginRejected{Message: MsgLoginFailed})
		return errors.New(MsgLoginFailed)
	}

	s.store.Dispatch(state.LoginFulfilled{Token: tok})
	return nil
}

// Logout forgets the token and resets the session.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	if err != nil {
		s.log.Warn("clear token", zap.Error(err))
	}
	s.store.Dispatch(state.Logout{})
	return err
}

// Register creates an account. It does not touch the store.
func (s *AuthService) Register(ctx context.Context, cred model.Credentials) error {
	if err := s.api.Register(ctx, cred); err != nil {
		s.log.Info("registration failed", zap.String("username", cred.Username), zap.Error(err))
		return errors.New(MsgRegistrationFailed)
	}
	return nil
}

// Username returns the username carried by the stored token.
func (s *AuthService) Username(ctx context.Context) (string, bool) {
	return s.tokens.Username(ctx)
}

// RequireUsername is Username for callers that cannot proceed without one.
func (s *AuthService) RequireUsername(ctx context.Context) (string, error) {
	u, ok := s.tokens.Username(ctx)
	if !ok || u == "" {
		return "", fmt.Errorf("%w: no username in session", errs.ErrUnauthorized)
	}
	return u, nil
}
