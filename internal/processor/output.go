package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/subflow/internal/fsx"
)

// Output file suffixes, placed beside the video
const (
	FinalSuffix    = ".en.srt"
	FallbackSuffix = ".source.srt"
)

// OutputPaths returns the English subtitle and the untranslated fallback
// paths for a video.
func OutputPaths(videoPath string) (final, fallback string) {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return stem + FinalSuffix, stem + FallbackSuffix
}

// FinalExists reports whether the English subtitle for a video is on disk.
func FinalExists(videoPath string) bool {
	final, _ := OutputPaths(videoPath)
	return fsx.Exists(final)
}

func (p *implProcessor) writeSubtitle(ctx context.Context, path, content string) error {
	if err := fsx.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write subtitle %s: %w", filepath.Base(path), err)
	}
	p.logger.Debug(ctx, "Wrote %s", path)
	return nil
}

// removeStale deletes an outdated subtitle file, logs warning if fails
func (p *implProcessor) removeStale(ctx context.Context, path string) {
	if err := fsx.RemoveIfExists(path); err != nil {
		p.logger.Warn(ctx, "Failed to remove stale subtitle %s: %v", path, err)
	}
}
