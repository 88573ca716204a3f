// Package subtitle holds transcript cues and renders them as SubRip (.srt).
package subtitle

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Cue is one subtitle entry.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Compose renders cues as an SRT document numbered from 1.
func Compose(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, formatTimestamp(c.Start), formatTimestamp(c.End), strings.TrimRight(c.Text, "\n"))
	}
	return b.String()
}

// HasRealText reports whether any cue text contains a letter or digit.
func HasRealText(cues []Cue) bool {
	for _, c := range cues {
		for _, r := range c.Text {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return true
			}
		}
	}
	return false
}

// Texts returns the cue texts in order.
func Texts(cues []Cue) []string {
	out := make([]string, len(cues))
	for i, c := range cues {
		out[i] = c.Text
	}
	return out
}

// WithTexts returns a copy of cues with the text replaced, keeping timings.
func WithTexts(cues []Cue, texts []string) ([]Cue, error) {
	if len(texts) != len(cues) {
		return nil, fmt.Errorf("text count %d does not match cue count %d", len(texts), len(cues))
	}
	out := make([]Cue, len(cues))
	for i, c := range cues {
		c.Text = texts[i]
		out[i] = c
	}
	return out, nil
}

// formatTimestamp renders d as HH:MM:SS,mmm.
func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
