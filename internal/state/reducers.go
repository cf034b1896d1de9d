package state

import "github.com/and161185/gk-share/internal/model"

// DefaultFetchError is recorded when a fetch fails without a message.
const DefaultFetchError = "Failed to fetch files"

// AuthState is the auth slice.
type AuthState struct {
	Token           string
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// FileState is the file slice. Files is in display order.
type FileState struct {
	Files   []model.File
	Loading bool
	Error   string
}

// ReduceAuth applies a to s. Unrelated actions return s unchanged.
func ReduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case SessionRestored:
		s.Token = a.Token
		s.IsAuthenticated = a.Token != "" && a.Valid
	case LoginPending:
		s.Loading = true
		s.Error = ""
	case LoginFulfilled:
		s.Loading = false
		s.Token = a.Token
		s.IsAuthenticated = true
	case LoginRejected:
		s.Loading = false
		s.Error = a.Message
	case Logout:
		s.Token = ""
		s.IsAuthenticated = false
	}
	return s
}

// ReduceFiles applies a to s. s.Files is never mutated in place.
func ReduceFiles(s FileState, a Action) FileState {
	switch a := a.(type) {
	case Pending:
		s.Loading = true
		s.Error = ""
	case Rejected:
		s.Loading = false
		s.Error = a.Message
		if s.Error == "" && a.Op == OpFetch {
			s.Error = DefaultFetchError
		}
	case FetchFulfilled:
		s.Loading = false
		s.Files = model.CloneFiles(a.Files)
	case UploadFulfilled:
		s.Loading = false
		files := make([]model.File, 0, len(s.Files)+1)
		files = append(files, s.Files...)
		s.Files = append(files, a.File.Clone())
	case ShareFulfilled:
		s.Loading = false
		s.Files = patch(s.Files, a.FileID, func(f *model.File) { f.SharedLink = a.SharedLink })
	case StatisticsFulfilled:
		s.Loading = false
		s.Files = patch(s.Files, a.FileID, func(f *model.File) { f.ViewCount = a.ViewCount })
	case Reorder:
		s.Files = model.CloneFiles(a.Files)
	case Logout:
		s = FileState{}
	}
	return s
}

// patch applies fn to the first file with id. Unknown ids leave files as is.
func patch(files []model.File, id string, fn func(*model.File)) []model.File {
	for i := range files {
		if files[i].ID != id {
			continue
		}
		out := append([]model.File(nil), files...)
		fn(&out[i])
		return out
	}
	return files
}
