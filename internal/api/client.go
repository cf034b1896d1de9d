// Package api is the HTTP client of the file-sharing backend.
//
// One Client targets <backend>/api. Every request passes through a bearer
// round tripper that attaches the stored token; there is no retry, refresh
// or response interception, so a 401 reaches the caller as a *StatusError
// wrapping errs.ErrUnauthorized.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/gk-share/internal/convert"
	"github.com/and161185/gk-share/internal/model"
)

// Client issues backend requests.
type Client struct {
	base string // "<backend>/api", no trailing slash
	http *http.Client
	log  *zap.Logger
}

// Option customises a Client.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	log       *zap.Logger
}

// WithTransport replaces http.DefaultTransport as the innermost round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// New returns a client for backendURL. tokens may be nil for anonymous use.
func New(backendURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(backendURL))
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", backendURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url %q: missing host", backendURL)
	}

	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		base: strings.TrimRight(u.String(), "/") + "/api",
		http: &http.Client{Transport: chain(o.transport, tokens, o.log)},
		log:  o.log,
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, c.base+path, body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, cred model.Credentials) (string, error) {
	var out convert.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", cred, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login response without token")
	}
	return out.Token, nil
}

// Register creates an account. Only success or failure is reported.
func (c *Client) Register(ctx context.Context, cred model.Credentials) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/register", cred, nil)
}

// ListFiles returns every file owned by username, in backend order.
func (c *Client) ListFiles(ctx context.Context, username string) ([]model.File, error) {
	var out []convert.WireFile
	path := "/files/" + url.PathEscape(username) + "/all"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return convert.FromWireFiles(out)
}

// Upload streams one file with its tags as multipart/form-data.
func (c *Client) Upload(ctx context.Context, in model.UploadRequest) (model.File, error) {
	if in.Content == nil {
		return model.File{}, errors.New("upload: nil content")
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, in))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/files/upload", pr)
	if err != nil {
		_ = pr.Close()
		return model.File{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out convert.WireFile
	if err := c.do(req, &out); err != nil {
		_ = pr.Close()
		return model.File{}, err
	}
	return convert.FromWireFile(out)
}

// writeUploadForm writes the "file" part then the "tags" field.
func writeUploadForm(mw *multipart.Writer, in model.UploadRequest) error {
	h := make(textproto.MIMEHeader)
	name := filepath.Base(in.FileName)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": name,
	}))
	h.Set("Content-Type", model.ContentType(name))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, in.Content); err != nil {
		return err
	}
	if err := mw.WriteField("tags", in.Tags); err != nil {
		return err
	}
	return mw.Close()
}

// Share asks the backend for a shareable link to fileID.
func (c *Client) Share(ctx context.Context, fileID string) (string, error) {
	var out convert.ShareResponse
	path := "/files/" + url.PathEscape(fileID) + "/share"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	return out.SharedLink, nil
}

// Statistics returns the current view count of fileID.
func (c *Client) Statistics(ctx context.Context, fileID string) (int64, error) {
	var out convert.StatisticsResponse
	path := "/files/" + url.PathEscape(fileID) + "/statistics"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.ViewCount, nil
}
