package progress

import (
	"fmt"
	"time"
)

// Sample is one progress tick. Work is measured in media-duration seconds.
type Sample struct {
	FilesDone  int
	FilesTotal int
	Elapsed    time.Duration
	WorkDone   float64
	WorkTotal  float64
	// DidWork marks ticks that follow real transcription or translation.
	DidWork bool
}

// Snapshot is the estimator's view after the latest sample.
type Snapshot struct {
	FilesDone  int
	FilesTotal int
	Elapsed    time.Duration
	WorkDone   float64
	WorkLeft   float64
	WorkTotal  float64
	// Rate is work seconds processed per wall second, zero until learned.
	Rate float64
	// Remaining is valid only when HasEstimate is true.
	Remaining   time.Duration
	HasEstimate bool
}

// FormatHMS renders seconds as "m:ss", or "h:mm:ss" from one hour up.
func FormatHMS(seconds float64) string {
	s := int64(seconds)
	if s < 0 {
		s = 0
	}
	h, m, sec := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// ETA renders the remaining time or a placeholder while still learning.
func (s Snapshot) ETA() string {
	if !s.HasEstimate {
		return "estimating…"
	}
	return FormatHMS(s.Remaining.Seconds())
}
