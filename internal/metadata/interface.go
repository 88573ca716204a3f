package metadata

import "context"

// Store reads and patches the per-video sidecar documents.
type Store interface {
	// Path returns the sidecar location for a video.
	Path(videoPath string) string
	// Read returns the current record. Missing or corrupt sidecars read as empty.
	Read(videoPath string) Record
	// MergePatch deep-merges patch into the record and atomically persists it.
	MergePatch(videoPath string, patch Tree) (Record, error)
	// Update is MergePatch with a patch computed from the current record
	// while the sidecar is held.
	Update(videoPath string, fn func(current Record) Tree) (Record, error)
	// Touch records scan timestamps, the library-relative path, and a
	// media_id when the record has none yet.
	Touch(ctx context.Context, videoPath, relPath string) (Record, error)
}
