// Package ui renders the client's pages as plain-text views.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/and161185/gk-share/internal/form"
	"github.com/and161185/gk-share/internal/model"
	"github.com/and161185/gk-share/internal/state"
)

// LinkPreviewLen is how many characters of a shared link a card shows.
const LinkPreviewLen = 30

// Fixed page text.
const (
	LoggingIn           = "Logging in..."
	Registering         = "Registering..."
	RegistrationSuccess = "Registration successful! Redirecting to login..."
	ShareHint           = "No link yet (gk-share share -id %s)"
	NoFiles             = "No files uploaded yet."
)

// printer accumulates the first write error so render code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) f(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) fieldErrors(fe form.Errors) {
	for _, e := range fe {
		p.f("  %s: %s\n", e.Field, e.Message)
	}
}

// LoginView is what the login page shows.
type LoginView struct {
	Auth   state.AuthState
	Fields form.Errors
}

// RenderLogin writes the login page.
func RenderLogin(w io.Writer, v LoginView) error {
	p := &printer{w: w}
	p.f("Login\n")
	p.fieldErrors(v.Fields)
	if v.Auth.Loading {
		p.f("%s\n", LoggingIn)
	}
	if v.Auth.Error != "" {
		p.f("error: %s\n", v.Auth.Error)
	}
	return p.err
}

// RegistrationView is the registration page. It keeps its own request
// state instead of reading the store.
type RegistrationView struct {
	Loading bool
	Success bool
	Error   string
	Fields  form.Errors
}

// RenderRegistration writes the registration page.
func RenderRegistration(w io.Writer, v RegistrationView) error {
	p := &printer{w: w}
	p.f("Register\n")
	if v.Success {
		p.f("%s\n", RegistrationSuccess)
		return p.err
	}
	p.fieldErrors(v.Fields)
	if v.Loading {
		p.f("%s\n", Registering)
	}
	if v.Error != "" {
		p.f("error: %s\n", v.Error)
	}
	return p.err
}

// UploadView is the protected upload page: greeting, form feedback and the
// file list in display order.
type UploadView struct {
	Username string
	Files    state.FileState
	Fields   form.Errors
}

// RenderUpload writes the upload page.
func RenderUpload(w io.Writer, v UploadView) error {
	p := &printer{w: w}
	p.f("%s\n", Welcome(v.Username))
	p.fieldErrors(v.Fields)
	if v.Files.Error != "" {
		p.f("error: %s\n", v.Files.Error)
	}
	p.f("Uploaded Files\n")
	if len(v.Files.Files) == 0 {
		p.f("%s\n", NoFiles)
	}
	if p.err != nil {
		return p.err
	}
	for i, f := range v.Files.Files {
		p.f("\n%d. ", i+1)
		if p.err == nil {
			p.err = RenderFileCard(w, f)
		}
	}
	return p.err
}

// Welcome is the page greeting; the name is omitted when unknown.
func Welcome(username string) string {
	if username == "" {
		return "Welcome"
	}
	return "Welcome, " + username
}

// RenderFileCard writes one file card.
func RenderFileCard(w io.Writer, f model.File) error {
	p := &printer{w: w}
	p.f("%s [%s]\n", f.FileName, f.ID)
	p.f("   Tags: %s\n", strings.Join(f.Tags, ", "))
	p.f("   Views: %d\n", f.ViewCount)
	if f.SharedLink != "" {
		p.f("   Link: %s\n", PreviewLink(f.SharedLink))
	} else {
		p.f("   "+ShareHint+"\n", f.ID)
	}
	return p.err
}

// PreviewLink returns the first LinkPreviewLen characters of link followed
// by an ellipsis.
func PreviewLink(link string) string {
	r := []rune(link)
	if len(r) > LinkPreviewLen {
		r = r[:LinkPreviewLen]
	}
	return string(r) + "..."
}

// RenderQR writes link as a terminal QR code.
func RenderQR(w io.Writer, link string) error {
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr encode: %w", err)
	}
	_, err = io.WriteString(w, q.ToSmallString(false))
	return err
}
