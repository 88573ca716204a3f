package main

import (
	"context"

	"github.com/nguyentantai21042004/subflow/internal/config"
	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/internal/metadata"
	"github.com/nguyentantai21042004/subflow/internal/orchestrator"
	"github.com/nguyentantai21042004/subflow/internal/probe"
	"github.com/nguyentantai21042004/subflow/internal/processor"
	"github.com/nguyentantai21042004/subflow/internal/transcriber"
	"github.com/nguyentantai21042004/subflow/internal/translator"
	"github.com/nguyentantai21042004/subflow/pkg/executor"
)

// app is the wired dependency graph for one command.
type app struct {
	cfg   *config.Config
	log   logger.Logger
	orch  orchestrator.Orchestrator
	pool  *translator.Pool
	model string
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, model string) (*app, error) {
	exec := executor.New()
	store := metadata.New(log)
	probes := probe.NewCache(probe.NewFFprobe(cfg.FFmpeg.ProbePath, exec), store, log)

	counter, err := translator.NewCounter(cfg.Translation.TokenizerPath)
	if err != nil {
		return nil, err
	}

	keys := cfg.APIKeys()
	if len(keys) == 0 {
		log.Warn(ctx, "No translation API keys (set %s); non-English videos will keep source subtitles only", cfg.Translation.APIKeyEnv)
	}
	pool := translator.NewPool(cfg.Translation.IdleTTL, func(model, srcLang string) (translator.Translator, error) {
		return translator.NewGemini(model, keys, cfg.Translation.MaxBatchTokens, counter, log)
	}, log)

	proc := processor.New(cfg, store, transcriber.New(cfg, exec, log), pool, log)

	return &app{
		cfg:   cfg,
		log:   log,
		orch:  orchestrator.New(proc, probes, store, log),
		pool:  pool,
		model: model,
	}, nil
}

func (a *app) options() orchestrator.Options {
	popts := processor.DefaultOptions(a.cfg)
	if a.model != "" {
		popts.Model = a.model
	}
	return orchestrator.Options{
		Processor:      popts,
		ChunkThreshold: a.cfg.Batch.ChunkThreshold,
		ChunkSize:      a.cfg.Batch.ChunkSize,
		LibraryRoot:    a.cfg.Paths.LibraryRoot,
	}
}

func (a *app) close() {
	a.pool.Close()
}
