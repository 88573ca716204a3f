package metadata

import (
	"fmt"
	"os"
	"time"
)

// Top-level sidecar keys
const (
	KeyMediaID        = "media_id"
	KeyScan           = "scan"
	KeyLibraryRelPath = "library_relpath"
	KeyNoSpeech       = "no_speech"
	KeyTechnicalData  = "technical_data"
	KeySubtitleRun    = "subtitle_run"
)

// Signature identifies one version of a file. Any change invalidates
// cached conclusions about it.
type Signature struct {
	Size    int64 `json:"size"`
	ModTime int64 `json:"mtime_ns"`
}

// SignatureOf stats path and returns its signature.
func SignatureOf(path string) (Signature, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Signature{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Signature{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}, nil
}

// Record is one decoded sidecar document.
type Record = Tree

// NoSpeech is the `no_speech` sub-tree.
type NoSpeech struct {
	Detected  bool       `json:"detected"`
	ModelUsed string     `json:"model_used,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Signature *Signature `json:"signature,omitempty"`
}

// NoSpeechFor returns the cached no-speech marker when it was computed
// against sig. A signature mismatch is a miss.
func NoSpeechFor(rec Record, sig Signature) (NoSpeech, bool) {
	var ns NoSpeech
	if !rec.Decode(KeyNoSpeech, &ns) {
		return NoSpeech{}, false
	}
	if ns.Signature == nil || *ns.Signature != sig {
		return NoSpeech{}, false
	}
	return ns, true
}

// SubtitleRun is the `subtitle_run` sub-tree written after each attempt.
type SubtitleRun struct {
	Outcome          string         `json:"outcome"`
	DetectedLanguage string         `json:"detected_language,omitempty"`
	LanguageProb     float64        `json:"language_probability,omitempty"`
	Translated       bool           `json:"translated"`
	EnglishWritten   bool           `json:"english_written"`
	SegmentCount     int            `json:"segment_count"`
	TranscribeModel  string         `json:"transcribe_model,omitempty"`
	TranslateModel   string         `json:"translate_model,omitempty"`
	Config           map[string]any `json:"config,omitempty"`
	Signature        Signature      `json:"signature"`
	FinishedAt       time.Time      `json:"finished_at"`
}

// SubtitleRunFor returns the last recorded run when it was computed
// against sig.
func SubtitleRunFor(rec Record, sig Signature) (SubtitleRun, bool) {
	var run SubtitleRun
	if !rec.Decode(KeySubtitleRun, &run) || run.Signature != sig {
		return SubtitleRun{}, false
	}
	return run, true
}
