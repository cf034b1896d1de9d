package state

import "github.com/and161185/gk-share/internal/model"

// Action is a state transition request handled by the reducers.
type Action interface{ action() }

// Auth slice actions.
type (
	// LoginPending marks a login request in flight.
	LoginPending struct{}
	// LoginFulfilled carries the token issued by the backend.
	LoginFulfilled struct{ Token string }
	// LoginRejected carries the user-facing failure message.
	LoginRejected struct{ Message string }
	// Logout drops the session.
	Logout struct{}
	// SessionRestored initialises the auth slice from persisted storage.
	SessionRestored struct {
		Token string
		Valid bool
	}
)

// File slice actions. Op names the async operation a lifecycle action belongs to.
type (
	// Pending marks Op in flight.
	Pending struct{ Op Op }
	// Rejected records the failure of Op.
	Rejected struct {
		Op      Op
		Message string
	}
	// FetchFulfilled replaces the collection.
	FetchFulfilled struct{ Files []model.File }
	// UploadFulfilled appends one record.
	UploadFulfilled struct{ File model.File }
	// ShareFulfilled patches SharedLink of FileID.
	ShareFulfilled struct{ FileID, SharedLink string }
	// StatisticsFulfilled patches ViewCount of FileID.
	StatisticsFulfilled struct {
		FileID    string
		ViewCount int64
	}
	// Reorder replaces the collection with a client-side ordering.
	Reorder struct{ Files []model.File }
)

// Op identifies a file slice async operation.
type Op string

const (
	OpFetch      Op = "files/fetchFiles"
	OpUpload     Op = "files/uploadFile"
	OpShare      Op = "files/generateShareableLink"
	OpStatistics Op = "files/viewStatistics"
)

func (LoginPending) action()        {}
func (LoginFulfilled) action()      {}
func (LoginRejected) action()       {}
func (Logout) action()              {}
func (SessionRestored) action()     {}
func (Pending) action()             {}
func (Rejected) action()            {}
func (FetchFulfilled) action()      {}
func (UploadFulfilled) action()     {}
func (ShareFulfilled) action()      {}
func (StatisticsFulfilled) action() {}
func (Reorder) action()             {}
