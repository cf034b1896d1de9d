package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/gk-share/internal/model"
	"github.com/and161185/gk-share/internal/repository/jsonfile"
	"github.com/and161185/gk-share/internal/token"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func signToken(t *testing.T, username string, exp time.Time) string {
	t.Helper()
	c := token.Claims{Username: username, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func newRepo(t *testing.T) *jsonfile.Store {
	t.Helper()
	return jsonfile.New(filepath.Join(t.TempDir(), "state.json"))
}

func newKeeper(repo *jsonfile.Store) *token.Keeper {
	return token.NewKeeper(repo).WithClock(func() time.Time { return testNow })
}

type fakeAPI struct {
	mu sync.Mutex

	loginIn  model.Credentials
	loginOut string
	loginErr error

	regIn  model.Credentials
	regErr error

	listIn  string
	listOut []model.File
	listErr error

	upIn  model.UploadRequest
	upOut model.File
	upErr error

	shareIn  string
	shareOut string
	shareErr error

	statIn  string
	statOut int64
	statErr error

	calls int
}

var (
	_ AuthAPI  = (*fakeAPI)(nil)
	_ FilesAPI = (*fakeAPI)(nil)
)

func (f *fakeAPI) Login(_ context.Context, c model.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.loginIn = c
	return f.loginOut, f.loginErr
}

func (f *fakeAPI) Register(_ context.Context, c model.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.regIn = c
	return f.regErr
}

func (f *fakeAPI) ListFiles(_ context.Context, username string) ([]model.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.listIn = username
	return model.CloneFiles(f.listOut), f.listErr
}

func (f *fakeAPI) Upload(_ context.Context, in model.UploadRequest) (model.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.upIn = in
	return f.upOut, f.upErr
}

func (f *fakeAPI) Share(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.shareIn = id
	return f.shareOut, f.shareErr
}

func (f *fakeAPI) Statistics(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.statIn = id
	return f.statOut, f.statErr
}

func ids(files []model.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}
