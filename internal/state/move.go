package state

import "github.com/and161185/gk-share/internal/model"

// Move returns files with the element at from moved to position to, shifting
// the elements in between. Invalid or equal positions return files unchanged.
// The input slice is not modified.
func Move(files []model.File, from, to int) []model.File {
	n := len(files)
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		return files
	}
	out := make([]model.File, 0, n)
	moved := files[from]
	for i, f := range files {
		if i == from {
			continue
		}
		if i == to && from > to {
			out = append(out, moved)
		}
		out = append(out, f)
		if i == to && from < to {
			out = append(out, moved)
		}
	}
	return out
}

// IndexOf returns the position of id in files, or -1.
func IndexOf(files []model.File, id string) int {
	for i, f := range files {
		if f.ID == id {
			return i
		}
	}
	return -1
}
