package transcriber

import (
	"github.com/nguyentantai21042004/subflow/internal/config"
	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/pkg/executor"
)

type implWhisper struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Transcriber backed by the whisper.cpp CLI and ffmpeg
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) Transcriber {
	return &implWhisper{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}
