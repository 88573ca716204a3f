package probe

import "github.com/nguyentantai21042004/subflow/internal/metadata"

// VideoTrack summarizes the primary video stream.
type VideoTrack struct {
	Codec  string  `json:"codec"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	FPS    float64 `json:"fps"`
}

// AudioTrack summarizes one audio stream.
type AudioTrack struct {
	Codec    string `json:"codec"`
	Channels int    `json:"channels"`
	Language string `json:"language"`
	Default  bool   `json:"default"`
}

// SubtitleTrack summarizes one embedded subtitle stream.
type SubtitleTrack struct {
	Codec    string `json:"codec"`
	Language string `json:"language"`
	Default  bool   `json:"default"`
	Forced   bool   `json:"forced"`
}

// Result is what a Prober reports about one file.
type Result struct {
	Container      string
	Duration       float64
	PrimaryVideo   VideoTrack
	AudioTracks    []AudioTrack
	SubtitleTracks []SubtitleTrack
}

// TechnicalData is the cached `technical_data` sidecar sub-tree.
type TechnicalData struct {
	Signature       metadata.Signature `json:"signature"`
	DurationSeconds float64            `json:"duration_seconds"`
	Container       string             `json:"container"`
	PrimaryVideo    VideoTrack         `json:"primary_video_track"`
	AudioTracks     []AudioTrack       `json:"audio_tracks"`
	SubtitleTracks  []SubtitleTrack    `json:"subtitle_tracks"`
}

func newTechnicalData(r *Result, sig metadata.Signature) TechnicalData {
	td := TechnicalData{
		Signature:       sig,
		DurationSeconds: r.Duration,
		Container:       r.Container,
		PrimaryVideo:    r.PrimaryVideo,
		AudioTracks:     r.AudioTracks,
		SubtitleTracks:  r.SubtitleTracks,
	}
	if td.AudioTracks == nil {
		td.AudioTracks = []AudioTrack{}
	}
	if td.SubtitleTracks == nil {
		td.SubtitleTracks = []SubtitleTrack{}
	}
	return td
}
