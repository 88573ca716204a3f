package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/subflow/pkg/executor"
)

type ffprobe struct {
	binary   string
	executor executor.Executor
}

// NewFFprobe creates a Prober backed by the ffprobe binary
func NewFFprobe(binary string, exec executor.Executor) Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &ffprobe{binary: binary, executor: exec}
}

// Probe runs a single ffprobe JSON call against path
func (f *ffprobe) Probe(ctx context.Context, path string) (*Result, error) {
	out, err := f.executor.Execute(ctx, f.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON([]byte(out))
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if raw.Format.FormatName == "" && len(raw.Streams) == 0 {
		return nil, fmt.Errorf("parse ffprobe JSON: no format or streams")
	}
	return buildResult(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	RFrameRate   string            `json:"r_frame_rate"`
	Channels     int               `json:"channels"`
	Disposition  map[string]int    `json:"disposition"`
	Tags         map[string]string `json:"tags"`
}

func buildResult(raw *ffprobeOutput) *Result {
	r := &Result{
		Container: strings.TrimSpace(raw.Format.FormatName),
		Duration:  parseFloat(raw.Format.Duration),
	}

	seenVideo := false
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			// cover art is reported as a video stream
			if seenVideo || s.Disposition["attached_pic"] == 1 {
				continue
			}
			seenVideo = true
			rate := s.AvgFrameRate
			if rate == "" || rate == "0/0" {
				rate = s.RFrameRate
			}
			r.PrimaryVideo = VideoTrack{
				Codec:  strings.TrimSpace(s.CodecName),
				Width:  s.Width,
				Height: s.Height,
				FPS:    parseRate(rate),
			}
		case "audio":
			r.AudioTracks = append(r.AudioTracks, AudioTrack{
				Codec:    strings.TrimSpace(s.CodecName),
				Channels: s.Channels,
				Language: streamLanguage(s),
				Default:  s.Disposition["default"] == 1,
			})
		case "subtitle":
			r.SubtitleTracks = append(r.SubtitleTracks, SubtitleTrack{
				Codec:    strings.TrimSpace(s.CodecName),
				Language: streamLanguage(s),
				Default:  s.Disposition["default"] == 1,
				Forced:   s.Disposition["forced"] == 1,
			})
		}
	}
	return r
}

func streamLanguage(s *ffprobeStream) string {
	if lang := strings.TrimSpace(s.Tags["language"]); lang != "" {
		return lang
	}
	return "und"
}

// ffprobe returns numbers as strings
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

// parseRate handles "num/den" frame rates as well as plain numbers.
func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(rate), "/")
	if !ok {
		return parseFloat(num)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}
