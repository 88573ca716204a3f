package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/subtitle"
)

// Transcribe extracts audio and runs whisper-cli with language detection.
// model is either a whisper model name ("medium") resolved through the
// configured model path, or a path to a ggml model file.
func (w *implWhisper) Transcribe(ctx context.Context, videoPath, model string) (*Transcript, error) {
	workDir, err := os.MkdirTemp(w.cfg.Paths.Temp, "subflow-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath, err := w.extractAudio(ctx, videoPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	outputPrefix := filepath.Join(workDir, "transcript")
	args := []string{
		"-m", w.modelPath(model),
		"-f", audioPath,
		"-l", "auto",
		"-oj",
		"-t", strconv.Itoa(w.cfg.Whisper.Threads),
		"-bs", strconv.Itoa(w.cfg.Whisper.BeamSize),
		"-of", outputPrefix,
	}
	if w.cfg.Whisper.Prompt != "" {
		args = append(args, "--prompt", w.cfg.Whisper.Prompt)
	}

	// run inside the work dir so any stray whisper output is removed with it
	w.logger.Debug(ctx, "Running whisper on %s", filepath.Base(videoPath))
	if _, err := w.executor.ExecuteInDir(ctx, workDir, w.cfg.Whisper.BinaryPath, args...); err != nil {
		return nil, fmt.Errorf("%w: whisper: %v", ErrDecode, err)
	}

	data, err := os.ReadFile(outputPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: read whisper output: %v", ErrDecode, err)
	}

	t, err := parseWhisperJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return t, nil
}

func (w *implWhisper) modelPath(model string) string {
	if model == "" || model == w.cfg.Whisper.Model {
		return w.cfg.Whisper.ModelPath
	}
	if strings.HasSuffix(model, ".bin") {
		return model
	}
	return filepath.Join(filepath.Dir(w.cfg.Whisper.ModelPath), "ggml-"+model+".bin")
}

// --- whisper.cpp -oj wire types ---

type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []whisperSegment `json:"transcription"`
}

type whisperSegment struct {
	Offsets struct {
		From int64 `json:"from"`
		To   int64 `json:"to"`
	} `json:"offsets"`
	Text string `json:"text"`
}

func parseWhisperJSON(data []byte) (*Transcript, error) {
	var raw whisperOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse whisper JSON: %w", err)
	}

	lang := strings.TrimSpace(raw.Result.Language)
	if lang == "" {
		lang = "unknown"
	}

	cues := make([]subtitle.Cue, 0, len(raw.Transcription))
	for _, seg := range raw.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cues = append(cues, subtitle.Cue{
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
			Text:  text,
		})
	}

	return &Transcript{Language: lang, Cues: cues}, nil
}
