package processor

import "context"

// Processor turns one video into a subtitle outcome. It never returns an
// error: every failure is reported through the Result.
type Processor interface {
	Process(ctx context.Context, videoPath string, opts Options) Result
}

// Options are the per-batch knobs of a run.
type Options struct {
	// Existing is config.ExistingSkip or config.ExistingOverwrite.
	Existing string
	// EnglishOutput is config.OutputAll or config.OutputNonEnglishOnly.
	EnglishOutput string
	// MaxSegments is the cue ceiling above which translation is skipped.
	MaxSegments int
	// Model is the transcription model identifier.
	Model string
	// Status, when set, receives human-readable stage updates.
	Status func(stage, detail string)
}
