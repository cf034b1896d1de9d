package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/gk-share/internal/model"
	"github.com/and161185/gk-share/internal/repository"
	"github.com/and161185/gk-share/internal/state"
)

// FilesAPI is the part of the backend client used for files.
type FilesAPI interface {
	ListFiles(ctx context.Context, username string) ([]model.File, error)
	Upload(ctx context.Context, in model.UploadRequest) (model.File, error)
	Share(ctx context.Context, fileID string) (string, error)
	Statistics(ctx context.Context, fileID string) (int64, error)
}

// orderKeyPrefix prefixes the per-user display order in the local store.
const orderKeyPrefix = "order:"

// FileService runs the file operations against the store.
type FileService struct {
	store *state.Store
	api   FilesAPI
	kv    repository.KVRepository // optional, persists display order
	log   *zap.Logger
}

// NewFileService constructs FileService. kv may be nil, then display order
// lives only in memory.
func NewFileService(store *state.Store, api FilesAPI, kv repository.KVRepository, log *zap.Logger) *FileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileService{store: store, api: api, kv: kv, log: log}
}

func (s *FileService) reject(op state.Op, err error) error {
	s.log.Info("file operation failed", zap.String("op", string(op)), zap.Error(err))
	s.store.Dispatch(state.Rejected{Op: op, Message: err.Error()})
	return err
}

// FetchFiles loads username's files and applies the saved display order.
func (s *FileService) FetchFiles(ctx context.Context, username string) ([]model.File, error) {
	s.store.Dispatch(state.Pending{Op: state.OpFetch})

	files, err := s.api.ListFiles(ctx, username)
	if err != nil {
		return nil, s.reject(state.OpFetch, err)
	}
	files = applyOrder(files, s.loadOrder(ctx, username))

	snap := s.store.Dispatch(state.FetchFulfilled{Files: files})
	return snap.Files.Files, nil
}

// UploadFile uploads one file and appends the created record.
func (s *FileService) UploadFile(ctx context.Context, in model.UploadRequest) (model.File, error) {
	s.store.Dispatch(state.Pending{Op: state.OpUpload})

	f, err := s.api.Upload(ctx, in)
	if err != nil {
		return model.File{}, s.reject(state.OpUpload, err)
	}
	s.store.Dispatch(state.UploadFulfilled{File: f})
	return f, nil
}

// GenerateShareableLink asks for a link to id and records it on the file.
func (s *FileService) GenerateShareableLink(ctx context.Context, id string) (string, error) {
	s.store.Dispatch(state.Pending{Op: state.OpShare})

	link, err := s.api.Share(ctx, id)
	if err != nil {
		return "", s.reject(state.OpShare, err)
	}
	s.store.Dispatch(state.ShareFulfilled{FileID: id, SharedLink: link})
	return link, nil
}

// ViewStatistics refreshes the view count of id.
func (s *FileService) ViewStatistics(ctx context.Context, id string) (int64, error) {
	s.store.Dispatch(state.Pending{Op: state.OpStatistics})

	n, err := s.api.Statistics(ctx, id)
	if err != nil {
		return 0, s.reject(state.OpStatistics, err)
	}
	s.store.Dispatch(state.StatisticsFulfilled{FileID: id, ViewCount: n})
	return n, nil
}

// ReorderFiles replaces the collection with files and saves the order for
// username. No request is sent.
func (s *FileService) ReorderFiles(ctx context.Context, username string, files []model.File) error {
	snap := s.store.Dispatch(state.Reorder{Files: files})
	return s.saveOrder(ctx, username, snap.Files.Files)
}

// MoveFile resolves a drag that ended with activeID over overID.
// Equal or unknown ids leave the collection unchanged.
func (s *FileService) MoveFile(ctx context.Context, username, activeID, overID string) (bool, error) {
	if activeID == overID {
		return false, nil
	}
	files := s.store.Snapshot().Files.Files
	from, to := state.IndexOf(files, activeID), state.IndexOf(files, overID)
	if from < 0 || to < 0 {
		return false, nil
	}
	return true, s.ReorderFiles(ctx, username, state.Move(files, from, to))
}

func orderKey(username string) string { return orderKeyPrefix + username }

func (s *FileService) loadOrder(ctx context.Context, username string) []string {
	if s.kv == nil || username == "" {
		return nil
	}
	raw, ok, err := s.kv.Get(ctx, orderKey(username))
	if err != nil {
		s.log.Warn("load display order", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.Warn("decode display order", zap.Error(err))
		return nil
	}
	return ids
}

func (s *FileService) saveOrder(ctx context.Context, username string, files []model.File) error {
	if s.kv == nil || username == "" {
		return nil
	}
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, orderKey(username), string(b)); err != nil {
		return fmt.Errorf("save display order: %w", err)
	}
	return nil
}

// applyOrder sorts files by their position in order. Files missing from
// order follow in their original order.
func applyOrder(files []model.File, order []string) []model.File {
	if len(order) == 0 || len(files) == 0 {
		return files
	}
	out := make([]model.File, 0, len(files))
	placed := make([]bool, len(files))
	byID := make(map[string]int, len(files))
	for i, f := range files {
		if _, dup := byID[f.ID]; !dup {
			byID[f.ID] = i
		}
	}
	for _, id := range order {
		i, ok := byID[id]
		if !ok || placed[i] {
			continue
		}
		placed[i] = true
		out = append(out, files[i])
	}
	for i, f := range files {
		if !placed[i] {
			out = append(out, f)
		}
	}
	return out
}
