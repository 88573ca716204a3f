package processor

import (
	"fmt"
	"time"
)

// Outcome is the terminal state of processing one video.
type Outcome int

const (
	SkippedNoSpeechCached Outcome = iota + 1
	SkippedExistingOutput
	SkippedNoSpeech
	SkippedSegmentOverflow
	SkippedEnglishTranslateOnlyMode
	EnglishWritten
	UnmappableLanguage
	Translated
	DecodeFailure
	TranslationFailure
	WriteFailure
)

var outcomeNames = map[Outcome]string{
	SkippedNoSpeechCached:           "SkippedNoSpeechCached",
	SkippedExistingOutput:           "SkippedExistingOutput",
	SkippedNoSpeech:                 "SkippedNoSpeech",
	SkippedSegmentOverflow:          "SkippedSegmentOverflow",
	SkippedEnglishTranslateOnlyMode: "SkippedEnglishTranslateOnlyMode",
	EnglishWritten:                  "EnglishWritten",
	UnmappableLanguage:              "UnmappableLanguage",
	Translated:                      "Translated",
	DecodeFailure:                   "DecodeFailure",
	TranslationFailure:              "TranslationFailure",
	WriteFailure:                    "WriteFailure",
}

// Outcomes lists every outcome in declaration order.
func Outcomes() []Outcome {
	out := make([]Outcome, 0, len(outcomeNames))
	for o := SkippedNoSpeechCached; o <= WriteFailure; o++ {
		out = append(out, o)
	}
	return out
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// OK reports whether the batch should count the outcome as a success.
func (o Outcome) OK() bool {
	switch o {
	case DecodeFailure, UnmappableLanguage, TranslationFailure, WriteFailure:
		return false
	}
	return true
}

// DidWork reports whether transcription ran to completion for the outcome,
// i.e. whether its wall time is a real throughput signal.
func (o Outcome) DidWork() bool {
	switch o {
	case SkippedNoSpeechCached, SkippedExistingOutput, DecodeFailure:
		return false
	}
	return true
}

// cached outcomes leave the sidecar untouched
func (o Outcome) cached() bool {
	return o == SkippedNoSpeechCached || o == SkippedExistingOutput
}

// Result is the immutable record of one processed video.
type Result struct {
	Video   string        `json:"video"`
	Path    string        `json:"path"`
	OK      bool          `json:"ok"`
	Outcome Outcome       `json:"outcome"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Detail  string        `json:"detail,omitempty"`
	// Cached is set when the outcome was replayed from the sidecar
	// without calling any collaborator.
	Cached  bool          `json:"cached,omitempty"`
}

// DidWork reports whether the Result carries real throughput: the outcome
// did work and was not replayed from the sidecar.
func (r Result) DidWork() bool {
	return !r.Cached && r.Outcome.DidWork()
}
