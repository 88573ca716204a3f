package orchestrator

import (
	"context"

	"github.com/nguyentantai21042004/subflow/internal/metadata"
	"github.com/nguyentantai21042004/subflow/internal/processor"
	"github.com/nguyentantai21042004/subflow/internal/progress"
)

// Orchestrator drives a batch of videos through the processor.
type Orchestrator interface {
	// Run processes videos in sorted order and returns one Result per
	// handled video, also in sorted order. Cancelling ctx stops the batch
	// after the in-flight video; the Results gathered so far are returned.
	Run(ctx context.Context, videos []string, opts Options) []processor.Result
}

// Toucher records that a video was seen during a scan.
type Toucher interface {
	Touch(ctx context.Context, videoPath, relPath string) (metadata.Record, error)
}

// Options configure one Run.
type Options struct {
	Processor processor.Options
	// ChunkThreshold is the filtered size above which the batch is chunked.
	ChunkThreshold int
	ChunkSize      int
	// LibraryRoot, when set, is used to record library-relative paths.
	LibraryRoot string
	Observer    progress.Observer
}
