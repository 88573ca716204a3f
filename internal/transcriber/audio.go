package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
)

// extractAudio converts the video's default audio track into a 16kHz mono
// WAV inside workDir, the input format whisper expects.
func (w *implWhisper) extractAudio(ctx context.Context, videoPath, workDir string) (string, error) {
	audioPath := filepath.Join(workDir, "audio.wav")

	// -vn: drop video, -ar 16000 -ac 1: whisper's native sample format
	args := []string{
		"-nostdin",
		"-i", videoPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		audioPath,
	}

	if _, err := w.executor.Execute(ctx, w.cfg.FFmpeg.BinaryPath, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	w.logger.Debug(ctx, "Audio extracted: %s", audioPath)
	return audioPath, nil
}
