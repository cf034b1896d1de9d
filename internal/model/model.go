// Package model defines domain entities shared by the client layers.
package model

import "io"

// File mirrors a file record owned by the backend.
type File struct {
	ID         string   // opaque backend identifier
	FileName   string   // original upload name
	FilePath   string   // optional storage path reported by the backend
	Tags       []string // in the order the backend returns them
	ViewCount  int64    // >= 0
	SharedLink string   // empty until a link was generated
}

// Clone returns a deep copy of f.
func (f File) Clone() File {
	c := f
	if f.Tags != nil {
		c.Tags = make([]string, len(f.Tags))
		copy(c.Tags, f.Tags)
	}
	return c
}

// CloneFiles deep-copies a file collection, preserving nil.
func CloneFiles(files []File) []File {
	if files == nil {
		return nil
	}
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = f.Clone()
	}
	return out
}

// Credentials is a username/password pair submitted to login and register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UploadRequest describes one multipart upload.
type UploadRequest struct {
	FileName string    // name sent in the multipart part
	Content  io.Reader // file body
	Tags     string    // comma-separated, sent as typed
}
