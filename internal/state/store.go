// Package state implements the persistence hook (C14): saving and
// loading the pending/visited URL sets a Crawl Session needs to resume
// after an interruption. FileStore follows the teacher's
// pkg/fileutil/internal/storage idiom — hashed, directory-per-key
// layout, atomic temp-file-then-rename writes — repointed at crawl
// state instead of markdown documents.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohmanhakim/spider/pkg/failure"
	"github.com/rohmanhakim/spider/pkg/fileutil"
	"github.com/rohmanhakim/spider/pkg/hashutil"
)

// SavedState is the persisted shape of one resumable crawl, per
// SPEC_FULL.md §4.9.
type SavedState struct {
	PendingURLs []string `json:"pending_urls"`
	VisitedURLs []string `json:"visited_urls"`
}

// Store is the persistence port. A Load that finds nothing returns
// (SavedState{}, false, nil), never an error.
type Store interface {
	Load(ctx context.Context, sessionKey string) (SavedState, bool, error)
	Save(ctx context.Context, sessionKey string, state SavedState) error
}

const stateFileName = "state.json"

// FileStore persists SavedState as JSON under baseDir, one subdirectory
// per session key. The directory name is the session key's BLAKE3 hash
// truncated to 12 hex characters, matching the teacher's
// internal/storage filename convention.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Load(ctx context.Context, sessionKey string) (SavedState, bool, error) {
	if err := ctx.Err(); err != nil {
		return SavedState{}, false, err
	}

	dir, err := s.sessionDir(sessionKey)
	if err != nil {
		return SavedState{}, false, &StateError{Op: "load", Message: err.Error(), Cause: ErrCauseHashFailure, Retryable: false}
	}

	path := filepath.Join(dir, stateFileName)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return SavedState{}, false, nil
	}
	if err != nil {
		return SavedState{}, false, &StateError{
			Op: "load", Message: err.Error(), Cause: ErrCauseReadFailure, Retryable: true,
		}
	}

	var saved SavedState
	if err := json.Unmarshal(raw, &saved); err != nil {
		return SavedState{}, false, &StateError{
			Op: "load", Message: err.Error(), Cause: ErrCauseDecodeFailure, Retryable: false,
		}
	}
	return saved, true, nil
}

func (s *FileStore) Save(ctx context.Context, sessionKey string, savedState SavedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := s.sessionDir(sessionKey)
	if err != nil {
		return &StateError{Op: "save", Message: err.Error(), Cause: ErrCauseHashFailure, Retryable: false}
	}

	if classified := fileutil.EnsureDir(dir); classified != nil {
		return &StateError{
			Op: "save", Message: classified.Error(), Cause: ErrCausePathError,
			Retryable: classified.Severity() == failure.SeverityRecoverable,
		}
	}

	raw, err := json.MarshalIndent(savedState, "", "  ")
	if err != nil {
		return &StateError{Op: "save", Message: err.Error(), Cause: ErrCauseDecodeFailure, Retryable: false}
	}

	return atomicWrite(filepath.Join(dir, stateFileName), raw)
}

// atomicWrite writes data to a temp file in the same directory as path,
// then renames it into place, so a crash mid-write never leaves a
// truncated state.json behind.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return &StateError{Op: "save", Message: err.Error(), Cause: ErrCauseWriteFailure, Retryable: true}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &StateError{Op: "save", Message: err.Error(), Cause: ErrCauseWriteFailure, Retryable: true}
	}
	if err := tmp.Close(); err != nil {
		return &StateError{Op: "save", Message: err.Error(), Cause: ErrCauseWriteFailure, Retryable: true}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &StateError{Op: "save", Message: err.Error(), Cause: ErrCauseWriteFailure, Retryable: true}
	}
	return nil
}

func (s *FileStore) sessionDir(sessionKey string) (string, error) {
	hash, err := hashutil.HashBytes([]byte(sessionKey), hashutil.HashAlgoBLAKE3)
	if err != nil {
		return "", fmt.Errorf("hash session key: %w", err)
	}
	return filepath.Join(s.baseDir, hash[:12]), nil
}
