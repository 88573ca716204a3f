package transcriber

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/subflow/internal/subtitle"
)

// ErrDecode wraps every failure to turn a video into a transcript.
var ErrDecode = errors.New("audio decode failed")

// Transcript is the speech-to-text result for one video.
type Transcript struct {
	// Language is the detected language code ("en", "ja", ...).
	Language string
	// Probabilities holds per-language confidence when the engine reports it.
	Probabilities map[string]float64
	Cues          []subtitle.Cue
}

// Transcriber turns a video into timed cues and a detected language.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath, model string) (*Transcript, error)
}
