package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/gk-share/internal/form"
	"github.com/and161185/gk-share/internal/model"
	"github.com/and161185/gk-share/internal/state"
)

func TestPreviewLink(t *testing.T) {
	t.Parallel()

	long := "https://share.example.com/s/0123456789abcdef"
	require.Equal(t, long[:30]+"...", PreviewLink(long))
	require.Equal(t, "https://x/y...", PreviewLink("https://x/y"))
}

func TestRenderFileCard(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderFileCard(&buf, model.File{
		ID: "1", FileName: "cat.png", Tags: []string{"pets", "cats"}, ViewCount: 7,
	}))
	out := buf.String()
	require.Contains(t, out, "cat.png")
	require.Contains(t, out, "Tags: pets, cats")
	require.Contains(t, out, "Views: 7")
	require.Contains(t, out, "share -id 1")
	require.NotContains(t, out, "Link:")

	buf.Reset()
	link := "https://share.example.com/s/0123456789abcdef"
	require.NoError(t, RenderFileCard(&buf, model.File{ID: "2", FileName: "b.mp4", SharedLink: link}))
	require.Contains(t, buf.String(), "Link: "+link[:30]+"...\n")
}

func TestRenderLogin(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderLogin(&buf, LoginView{
		Auth:   state.AuthState{Loading: true},
		Fields: form.Errors{{Field: "username", Message: form.MsgUsernameRequired}},
	}))
	require.Contains(t, buf.String(), LoggingIn)
	require.Contains(t, buf.String(), form.MsgUsernameRequired)

	buf.Reset()
	require.NoError(t, RenderLogin(&buf, LoginView{Auth: state.AuthState{Error: "Login failed"}}))
	require.Contains(t, buf.String(), "error: Login failed")
	require.NotContains(t, buf.String(), LoggingIn)
}

func TestRenderRegistration(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderRegistration(&buf, RegistrationView{Loading: true}))
	require.Contains(t, buf.String(), Registering)

	buf.Reset()
	require.NoError(t, RenderRegistration(&buf, RegistrationView{Success: true, Error: "ignored"}))
	require.Contains(t, buf.String(), RegistrationSuccess)
	require.NotContains(t, buf.String(), "ignored")
}

func TestRenderUpload(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderUpload(&buf, UploadView{Username: "alice"}))
	require.Contains(t, buf.String(), "Welcome, alice")
	require.Contains(t, buf.String(), NoFiles)

	buf.Reset()
	require.NoError(t, RenderUpload(&buf, UploadView{
		Files: state.FileState{
			Error: "Failed to fetch files",
			Files: []model.File{{ID: "b", FileName: "b.mp4"}, {ID: "a", FileName: "a.png"}},
		},
	}))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "Welcome\n"))
	require.Contains(t, out, "error: Failed to fetch files")
	require.Less(t, strings.Index(out, "b.mp4"), strings.Index(out, "a.png"), "display order kept")
}

func TestRenderQR(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderQR(&buf, "https://share.example.com/s/abc"))
	require.Greater(t, strings.Count(buf.String(), "\n"), 10)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRender_PropagatesWriteErrors(t *testing.T) {
	t.Parallel()

	require.Error(t, RenderLogin(failWriter{}, LoginView{}))
	require.Error(t, RenderUpload(failWriter{}, UploadView{Files: state.FileState{Files: []model.File{{ID: "1"}}}}))
	require.Error(t, RenderFileCard(failWriter{}, model.File{}))
}
