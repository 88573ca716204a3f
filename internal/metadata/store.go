package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/subflow/internal/fsx"
	"github.com/nguyentantai21042004/subflow/internal/logger"
)

// WriteError marks a failed sidecar write. Cache writes are an
// optimization; callers are expected to log it and move on.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write sidecar %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// BestEffort logs a failed cache write and drops it.
func BestEffort(ctx context.Context, log logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	var we *WriteError
	if errors.As(err, &we) {
		log.Warn(ctx, "Cache update skipped (%s), sidecar %s not written: %v", what, we.Path, we.Err)
		return
	}
	log.Warn(ctx, "Cache update skipped (%s): %v", what, err)
}

func newMediaID() string {
	return uuid.NewString()
}

func (s *implStore) Path(videoPath string) string {
	return videoPath + SidecarSuffix
}

func (s *implStore) lock(path string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *implStore) Read(videoPath string) Record {
	return s.read(s.Path(videoPath))
}

func (s *implStore) read(path string) Record {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug(context.Background(), "Unreadable sidecar %s treated as empty: %v", path, err)
		}
		return Record{}
	}
	if len(data) == 0 {
		return Record{}
	}
	rec, err := decodeTree(data)
	if err != nil {
		s.logger.Debug(context.Background(), "Corrupt sidecar %s treated as empty: %v", path, err)
		return Record{}
	}
	return rec
}

func (s *implStore) MergePatch(videoPath string, patch Tree) (Record, error) {
	return s.Update(videoPath, func(Record) Tree { return patch })
}

func (s *implStore) Update(videoPath string, fn func(current Record) Tree) (Record, error) {
	path := s.Path(videoPath)
	mu := s.lock(path)
	mu.Lock()
	defer mu.Unlock()

	doc := s.read(path)
	doc = Merge(doc, fn(doc))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return doc, &WriteError{Path: path, Err: err}
	}
	if err := fsx.WriteFileAtomic(path, data, 0o644); err != nil {
		return doc, &WriteError{Path: path, Err: err}
	}
	return doc, nil
}

func (s *implStore) Touch(ctx context.Context, videoPath, relPath string) (Record, error) {
	now := s.now().UTC()
	return s.Update(videoPath, func(cur Record) Tree {
		scan := Tree{
			"last_seen":    now,
			"last_scanned": now,
		}
		if cur.Sub(KeyScan).String("first_seen") == "" {
			scan["first_seen"] = now
		}

		patch := Tree{KeyScan: scan}
		if cur.String(KeyMediaID) == "" {
			patch[KeyMediaID] = s.newID()
		}
		if relPath != "" {
			patch[KeyLibraryRelPath] = relPath
		}
		return patch
	})
}
