package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/nguyentantai21042004/subflow/internal/discover"
	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/internal/orchestrator"
	"github.com/nguyentantai21042004/subflow/internal/watcher"
)

func watchCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags("watch", args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if len(opts.args) != 1 {
		fmt.Fprintln(stderr, "subflow watch: exactly one library directory is required")
		return exitUsage
	}
	root := opts.args[0]

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "subflow: %v\n", err)
		return exitUsage
	}
	if cfg.Paths.LibraryRoot == "" {
		cfg.Paths.LibraryRoot = root
	}
	log := logger.NewWithWriter(cfg.Logging.Level, stderr)

	a, err := newApp(ctx, cfg, log, opts.model)
	if err != nil {
		fmt.Fprintf(stderr, "subflow: %v\n", err)
		return exitUsage
	}
	defer a.close()

	handler := func(ctx context.Context, videos []string) {
		results := a.runBatch(ctx, videos, false, stderr)
		s := orchestrator.Summarize(results)
		log.Info(ctx, "Batch finished: %d video(s), %d ok, %d failed", s.Total, s.OK, s.Failed)
		for _, r := range results {
			if !r.OK {
				log.Warn(ctx, "FAIL %s [%s]: %s", r.Video, r.Outcome, r.Detail)
			}
		}
		// translators idle past their TTL are released between batches
		a.pool.Evict()
	}

	if opts.initialScan {
		videos, err := discover.Collect(root, cfg.Batch.Recursive)
		if err != nil {
			fmt.Fprintf(stderr, "subflow: %v\n", err)
			return exitUsage
		}
		log.Info(ctx, "Initial pass over %d video(s)", len(videos))
		handler(ctx, videos)
		if ctx.Err() != nil {
			return exitInterrupted
		}
	}

	w, err := watcher.New(root, cfg.Batch.Recursive, opts.debounce, handler, log)
	if err != nil {
		fmt.Fprintf(stderr, "subflow: %v\n", err)
		return exitUsage
	}
	defer w.Stop()

	log.Info(ctx, "Watching %s, press Ctrl+C to stop", root)
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "Watcher error: %v", err)
		return exitFailure
	}

	fmt.Fprintln(stdout, "subflow watch stopped")
	return exitOK
}
