package probe

import "context"

// Prober inspects a media file. Implementations return an error when the
// tool is missing or the file cannot be decoded.
type Prober interface {
	Probe(ctx context.Context, path string) (*Result, error)
}

// Cache serves technical data from the sidecar while the file signature
// matches, probing only on a miss.
type Cache interface {
	// GetMediaData returns ok=false when the file cannot be probed.
	GetMediaData(ctx context.Context, videoPath string) (TechnicalData, bool)
}
