// Package convert maps backend JSON payloads to domain models and back.
package convert

import (
	"fmt"

	model "github.com/and161185/gk-share/internal/model"
)

// WireFile is a file record as the backend serialises it.
type WireFile struct {
	ID         string   `json:"_id"`
	FileName   string   `json:"fileName"`
	FilePath   string   `json:"filePath,omitempty"`
	Tags       []string `json:"tags"`
	ViewCount  int64    `json:"viewCount"`
	SharedLink string   `json:"sharedLink,omitempty"`
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// ShareResponse is the body of a share-link request.
type ShareResponse struct {
	SharedLink string `json:"sharedLink"`
}

// StatisticsResponse is the body of a statistics request.
type StatisticsResponse struct {
	ViewCount int64 `json:"viewCount"`
}

// FromWireFile converts a backend record to the domain struct.
func FromWireFile(in WireFile) (model.File, error) {
	if in.ID == "" {
		return model.File{}, fmt.Errorf("file record without _id")
	}
	if in.ViewCount < 0 {
		return model.File{}, fmt.Errorf("file %s: negative viewCount %d", in.ID, in.ViewCount)
	}
	tags := make([]string, len(in.Tags))
	copy(tags, in.Tags)
	return model.File{
		ID:         in.ID,
		FileName:   in.FileName,
		FilePath:   in.FilePath,
		Tags:       tags,
		ViewCount:  in.ViewCount,
		SharedLink: in.SharedLink,
	}, nil
}

// FromWireFiles converts a batch; the first invalid record fails the batch.
func FromWireFiles(in []WireFile) ([]model.File, error) {
	out := make([]model.File, 0, len(in))
	for i, w := range in {
		f, err := FromWireFile(w)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// ToWireFile converts a domain file to its backend representation.
func ToWireFile(f model.File) WireFile {
	return WireFile{
		ID:         f.ID,
		FileName:   f.FileName,
		FilePath:   f.FilePath,
		Tags:       append([]string{}, f.Tags...),
		ViewCount:  f.ViewCount,
		SharedLink: f.SharedLink,
	}
}
