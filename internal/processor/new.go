package processor

import (
	"time"

	"github.com/nguyentantai21042004/subflow/internal/config"
	"github.com/nguyentantai21042004/subflow/internal/langmap"
	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/internal/metadata"
	"github.com/nguyentantai21042004/subflow/internal/transcriber"
	"github.com/nguyentantai21042004/subflow/internal/translator"
)

type implProcessor struct {
	cfg         *config.Config
	store       metadata.Store
	transcriber transcriber.Transcriber
	translators *translator.Pool
	langs       *langmap.Map
	logger      logger.Logger
	now         func() time.Time
}

// New creates a Processor. Translators are taken from pool per detected
// language.
func New(cfg *config.Config, store metadata.Store, tr transcriber.Transcriber, pool *translator.Pool, log logger.Logger) Processor {
	return &implProcessor{
		cfg:         cfg,
		store:       store,
		transcriber: tr,
		translators: pool,
		langs:       langmap.New(cfg.Translation.LanguageMap),
		logger:      log,
		now:         time.Now,
	}
}

// DefaultOptions builds Options from the batch section of cfg.
func DefaultOptions(cfg *config.Config) Options {
	return Options{
		Existing:      cfg.Batch.Existing,
		EnglishOutput: cfg.Batch.EnglishOutput,
		MaxSegments:   cfg.Batch.MaxSegments,
		Model:         cfg.Whisper.Model,
	}
}
