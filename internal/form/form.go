// Package form holds the validation schemas of the login, registration and
// upload forms. A form that fails validation must not be submitted.
package form

import (
	"strings"

	"github.com/and161185/gk-share/internal/errs"
	"github.com/and161185/gk-share/internal/model"
)

// Validation messages shown inline next to the offending field.
const (
	MsgUsernameRequired = "Username is required"
	MsgPasswordRequired = "Password is required"
	MsgPasswordTooShort = "Password must be at least 6 characters"
	MsgTagsRequired     = "Please provide at least one tag"
	MsgFileRequired     = "Please select a file"
	MsgFileNotMedia     = "Only image or video files are accepted"
)

// MinPasswordLen is the registration password floor.
const MinPasswordLen = 6

// FieldError is the first failing rule of one field.
type FieldError struct {
	Field   string
	Message string
}

// Errors lists field errors in form order. A nil Errors means the form is valid.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Is matches errs.ErrValidation.
func (e Errors) Is(target error) bool { return target == errs.ErrValidation }

// Field returns the message for field, or "".
func (e Errors) Field(name string) string {
	for _, fe := range e {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// LoginForm is the login page form.
type LoginForm struct {
	Username string
	Password string
}

// Validate checks required fields.
func (f LoginForm) Validate() error {
	var e Errors
	if f.Username == "" {
		e = append(e, FieldError{"username", MsgUsernameRequired})
	}
	if f.Password == "" {
		e = append(e, FieldError{"password", MsgPasswordRequired})
	}
	return e.err()
}

// Credentials returns the submitted pair as typed.
func (f LoginForm) Credentials() model.Credentials {
	return model.Credentials{Username: f.Username, Password: f.Password}
}

// RegistrationForm is the registration page form.
type RegistrationForm struct {
	Username string
	Password string
}

// Validate checks required fields and the password length.
func (f RegistrationForm) Validate() error {
	var e Errors
	if f.Username == "" {
		e = append(e, FieldError{"username", MsgUsernameRequired})
	}
	switch {
	case f.Password == "":
		e = append(e, FieldError{"password", MsgPasswordRequired})
	case len([]rune(f.Password)) < MinPasswordLen:
		e = append(e, FieldError{"password", MsgPasswordTooShort})
	}
	return e.err()
}

// Credentials returns the submitted pair as typed.
func (f RegistrationForm) Credentials() model.Credentials {
	return model.Credentials{Username: f.Username, Password: f.Password}
}

// UploadForm is the upload page form: a selected file and its tags.
type UploadForm struct {
	FilePath string
	Tags     string
}

// Validate checks that a media file is selected and tags are given.
func (f UploadForm) Validate() error {
	var e Errors
	switch {
	case strings.TrimSpace(f.FilePath) == "":
		e = append(e, FieldError{"file", MsgFileRequired})
	case !model.IsMedia(f.FilePath):
		e = append(e, FieldError{"file", MsgFileNotMedia})
	}
	if f.Tags == "" {
		e = append(e, FieldError{"tags", MsgTagsRequired})
	}
	return e.err()
}
