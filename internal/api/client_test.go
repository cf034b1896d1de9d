package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/and161185/gk-share/internal/errs"
	"github.com/and161185/gk-share/internal/model"
)

type fakeTokens struct {
	tok string
	err error
}

func (f *fakeTokens) Get(context.Context) (string, bool, error) {
	return f.tok, f.tok != "", f.err
}

type seen struct {
	mu     sync.Mutex
	auth   []string
	reqIDs []string
	paths  []string
	upload map[string]string
	ctype  string
}

func (s *seen) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	s.reqIDs = append(s.reqIDs, r.Header.Get(RequestIDHeader))
	s.paths = append(s.paths, r.URL.Path)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T) (*httptest.Server, *seen) {
	t.Helper()
	s := &seen{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.record(req)
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
			var c model.Credentials
			_ = json.NewDecoder(req.Body).Decode(&c)
			if c.Password != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok-" + c.Username})
		})
		r.Post("/auth/register", func(w http.ResponseWriter, req *http.Request) {
			var c model.Credentials
			_ = json.NewDecoder(req.Body).Decode(&c)
			if c.Username == "taken" {
				http.Error(w, "user exists", http.StatusConflict)
				return
			}
			w.WriteHeader(http.StatusCreated)
		})
		r.Get("/files/{username}/all", func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no token"})
				return
			}
			writeJSON(w, http.StatusOK, []map[string]any{
				{"_id": "1", "fileName": "a.png", "tags": []string{"x"}, "viewCount": 2},
				{"_id": "2", "fileName": "b.mp4", "tags": []string{}, "viewCount": 0, "sharedLink": "https://s/2"},
			})
		})
		r.Post("/files/upload", func(w http.ResponseWriter, req *http.Request) {
			s.mu.Lock()
			s.ctype = req.Header.Get("Content-Type")
			s.mu.Unlock()
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f, fh, err := req.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			s.mu.Lock()
			s.upload = map[string]string{
				"filename": fh.Filename,
				"ctype":    fh.Header.Get("Content-Type"),
				"content":  string(b),
				"tags":     req.FormValue("tags"),
			}
			s.mu.Unlock()
			writeJSON(w, http.StatusCreated, map[string]any{
				"_id": "3", "fileName": fh.Filename, "tags": strings.Split(req.FormValue("tags"), ","), "viewCount": 0,
			})
		})
		r.Post("/files/{id}/share", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			if id == "missing" {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such file"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"sharedLink": "https://share.example/" + id})
		})
		r.Get("/files/{id}/statistics", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]int64{"viewCount": 41})
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s
}

func newClient(t *testing.T, url string, tokens TokenSource) *Client {
	t.Helper()
	c, err := New(url, tokens, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func TestNew_ValidatesURL(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "localhost:8080", "ftp://host", "http://", "://x"} {
		_, err := New(bad, nil)
		require.Error(t, err, bad)
	}

	c, err := New("https://files.example.com/", nil)
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/api", c.BaseURL())
}

func TestLogin_SuccessAndFailure(t *testing.T) {
	t.Parallel()
	srv, _ := newBackend(t)
	c := newClient(t, srv.URL, nil)
	ctx := context.Background()

	tok, err := c.Login(ctx, model.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "tok-alice", tok)

	_, err = c.Login(ctx, model.Credentials{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnauthorized, se.Code)
	require.Equal(t, "invalid credentials", se.Message)
	require.Equal(t, "/api/auth/login", se.Path)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	srv, _ := newBackend(t)
	c := newClient(t, srv.URL, nil)

	require.NoError(t, c.Register(context.Background(), model.Credentials{Username: "bob", Password: "123456"}))

	err := c.Register(context.Background(), model.Credentials{Username: "taken", Password: "123456"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusConflict, se.Code)
	require.Equal(t, "user exists", se.Message)
}

func TestBearerHeader_PresentOnlyWithToken(t *testing.T) {
	t.Parallel()
	srv, s := newBackend(t)
	tokens := &fakeTokens{}
	c := newClient(t, srv.URL, tokens)
	ctx := context.Background()

	_, err := c.ListFiles(ctx, "alice")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	tokens.tok = "T"
	files, err := c.ListFiles(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "https://s/2", files[1].SharedLink)

	tokens.tok, tokens.err = "ignored", errors.New("disk gone")
	_, err = c.ListFiles(ctx, "alice")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Equal(t, []string{"", "Bearer T", ""}, s.auth)
	require.Equal(t, "/api/files/alice/all", s.paths[1])
	for _, id := range s.reqIDs {
		_, err := uuid.FromString(id)
		require.NoError(t, err, "request id %q", id)
	}
	require.NotEqual(t, s.reqIDs[0], s.reqIDs[1])
}

func TestUpload_Multipart(t *testing.T) {
	t.Parallel()
	srv, s := newBackend(t)
	c := newClient(t, srv.URL, &fakeTokens{tok: "T"})

	f, err := c.Upload(context.Background(), model.UploadRequest{
		FileName: "/tmp/photos/cat.png",
		Content:  strings.NewReader("PNGDATA"),
		Tags:     "pets,cats",
	})
	require.NoError(t, err)
	require.Equal(t, "3", f.ID)
	require.Equal(t, []string{"pets", "cats"}, f.Tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.True(t, strings.HasPrefix(s.ctype, "multipart/form-data; boundary="))
	require.Equal(t, "cat.png", s.upload["filename"])
	require.Equal(t, "image/png", s.upload["ctype"])
	require.Equal(t, "PNGDATA", s.upload["content"])
	require.Equal(t, "pets,cats", s.upload["tags"])
}

func TestUpload_NilContent(t *testing.T) {
	t.Parallel()
	c := newClient(t, "http://127.0.0.1:1", nil)
	_, err := c.Upload(context.Background(), model.UploadRequest{FileName: "a.png"})
	require.Error(t, err)
}

func TestShareAndStatistics(t *testing.T) {
	t.Parallel()
	srv, _ := newBackend(t)
	c := newClient(t, srv.URL, &fakeTokens{tok: "T"})
	ctx := context.Background()

	link, err := c.Share(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, "https://share.example/abc", link)

	_, err = c.Share(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	n, err := c.Statistics(ctx, "abc")
	require.NoError(t, err)
	require.EqualValues(t, 41, n)
}

func TestDecodeError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}))
	defer srv.Close()
	c := newClient(t, srv.URL, nil)

	_, err := c.Statistics(context.Background(), "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestLoggingTransport_LogsMetadata(t *testing.T) {
	t.Parallel()
	srv, _ := newBackend(t)
	core, logs := observer.New(zap.InfoLevel)
	c, err := New(srv.URL, &fakeTokens{tok: "T"}, WithLogger(zap.New(core)))
	require.NoError(t, err)

	_, err = c.Statistics(context.Background(), "abc")
	require.NoError(t, err)

	entries := logs.FilterMessage("http").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "GET", fields["method"])
	require.Equal(t, "/api/files/abc/statistics", fields["path"])
	require.EqualValues(t, 200, fields["status"])
	require.NotEmpty(t, fields["request_id"])
	_, hasAuth := fields["Authorization"]
	require.False(t, hasAuth)
}

func TestTransportError_IsLoggedAndReturned(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	boom := errors.New("dial refused")
	c, err := New("http://backend.invalid", nil,
		WithLogger(zap.New(core)),
		WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom })),
	)
	require.NoError(t, err)

	_, err = c.Statistics(context.Background(), "x")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
