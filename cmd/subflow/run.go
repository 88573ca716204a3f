package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/nguyentantai21042004/subflow/internal/discover"
	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/internal/orchestrator"
	"github.com/nguyentantai21042004/subflow/internal/processor"
	"github.com/nguyentantai21042004/subflow/internal/progress"
)

const exitInterrupted = 130

func runCommand(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags("run", args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "subflow: %v\n", err)
		return exitUsage
	}
	log := logger.NewWithWriter(cfg.Logging.Level, stderr)

	inputs, err := readInputs(opts.args, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "subflow: %v\n", err)
		return exitUsage
	}
	videos, err := discover.Resolve(inputs, cfg.Batch.Recursive)
	if err != nil {
		fmt.Fprintf(stderr, "subflow: %v\n", err)
		return exitUsage
	}

	a, err := newApp(ctx, cfg, log, opts.model)
	if err != nil {
		fmt.Fprintf(stderr, "subflow: %v\n", err)
		return exitUsage
	}
	defer a.close()

	log.Info(ctx, "Found %d video(s) (existing=%s, english_output=%s)", len(videos), cfg.Batch.Existing, cfg.Batch.EnglishOutput)
	results := a.runBatch(ctx, videos, !opts.quiet && !opts.jsonOutput, stderr)
	summary := orchestrator.Summarize(results)

	if opts.jsonOutput {
		if err := writeJSON(stdout, results, summary); err != nil {
			fmt.Fprintf(stderr, "subflow: %v\n", err)
		}
	} else {
		printSummary(stdout, results, summary)
	}

	switch {
	case summary.Failed > 0:
		return exitFailure
	case ctx.Err() != nil:
		return exitInterrupted
	}
	return exitOK
}

// readInputs returns the positional paths, or a JSON array read from stdin
// when the only argument is "-".
func readInputs(args []string, stdin io.Reader) ([]string, error) {
	if len(args) == 1 && args[0] == "-" {
		var paths []string
		if err := json.NewDecoder(stdin).Decode(&paths); err != nil {
			return nil, fmt.Errorf("read paths from stdin: %w", err)
		}
		args = paths
	}
	if len(args) == 0 {
		return nil, errNoInputs
	}
	return args, nil
}

// runBatch runs the orchestrator, rendering progress to w when enabled.
func (a *app) runBatch(ctx context.Context, videos []string, showProgress bool, w io.Writer) []processor.Result {
	opts := a.options()
	if !showProgress {
		return a.orch.Run(ctx, videos, opts)
	}

	em := progress.NewEmitter(256)
	ui := newProgressUI(w)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		ui.consume(em.Events())
	}()

	opts.Observer = em
	results := a.orch.Run(ctx, videos, opts)
	em.Close()
	<-drained

	if n := em.Dropped(); n > 0 {
		a.log.Debug(ctx, "Progress display skipped %d event(s)", n)
	}
	return results
}

type jsonReport struct {
	Results []processor.Result   `json:"results"`
	Summary orchestrator.Summary `json:"summary"`
}

func writeJSON(w io.Writer, results []processor.Result, summary orchestrator.Summary) error {
	if results == nil {
		results = []processor.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport{Results: results, Summary: summary}); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, results []processor.Result, s orchestrator.Summary) {
	fmt.Fprintf(w, "Processed %d video(s): %d ok, %d failed\n", s.Total, s.OK, s.Failed)
	for _, o := range processor.Outcomes() {
		if n := s.ByOutcome[o]; n > 0 {
			fmt.Fprintf(w, "  %-32s %d\n", o, n)
		}
	}
	for _, r := range results {
		if !r.OK {
			fmt.Fprintf(w, "FAIL %s [%s]: %s\n", r.Video, r.Outcome, r.Detail)
		}
	}
}
