package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/subflow/internal/config"
	"github.com/nguyentantai21042004/subflow/internal/metadata"
	"github.com/nguyentantai21042004/subflow/internal/processor"
	"github.com/nguyentantai21042004/subflow/internal/progress"
)

type nopObserver struct{}

func (nopObserver) Status(string, string) {}
func (nopObserver) Progress(progress.Sample) {}

// item is one video that survived the prefilter.
type item struct {
	pos      int
	path     string
	duration float64
}

// Chunks splits n items into [start, end) ranges. Nothing is split unless
// n exceeds threshold.
func Chunks(n, threshold, size int) [][2]int {
	if n == 0 {
		return nil
	}
	if size <= 0 || n <= threshold {
		return [][2]int{{0, n}}
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

func (o *implOrchestrator) Run(ctx context.Context, videos []string, opts Options) []processor.Result {
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	if opts.Processor.Status == nil {
		opts.Processor.Status = obs.Status
	}

	sorted := append([]string(nil), videos...)
	sort.Strings(sorted)
	slots := make([]*processor.Result, len(sorted))

	items := o.prefilter(ctx, sorted, slots, opts)
	if len(items) < len(sorted) {
		obs.Status("Prefilter", fmt.Sprintf("%d of %d videos already have subtitles", len(sorted)-len(items), len(sorted)))
	}

	if !o.scan(ctx, items, opts, obs) {
		obs.Status("Cancelled", "Stopped while scanning media durations.")
		return collect(slots)
	}

	o.process(ctx, items, slots, opts, obs)
	return collect(slots)
}

// prefilter drops videos whose subtitle already exists, in skip mode,
// without probing or transcribing them.
func (o *implOrchestrator) prefilter(ctx context.Context, sorted []string, slots []*processor.Result, opts Options) []item {
	items := make([]item, 0, len(sorted))
	skip := opts.Processor.Existing != config.ExistingOverwrite

	for i, v := range sorted {
		if skip && processor.FinalExists(v) {
			slots[i] = &processor.Result{
				Video:   filepath.Base(v),
				Path:    v,
				OK:      true,
				Outcome: processor.SkippedExistingOutput,
				Detail:  "subtitle already exists",
				Cached:  true,
			}
			continue
		}
		items = append(items, item{pos: i, path: v})
	}

	o.logger.Debug(ctx, "Prefilter kept %d of %d videos", len(items), len(sorted))
	return items
}

// scan touches every sidecar and fills item durations from the probe
// cache. It reports false when cancelled.
func (o *implOrchestrator) scan(ctx context.Context, items []item, opts Options, obs progress.Observer) bool {
	total := len(items)
	failures := 0
	var lastStatus int64

	for i := range items {
		if ctx.Err() != nil {
			return false
		}

		now := o.now().UnixNano()
		if i == 0 || now-lastStatus >= int64(scanStatusInterval) {
			obs.Status("Scanning", fmt.Sprintf("Reading media info (%d/%d)…", i+1, total))
			lastStatus = now
		}

		v := items[i].path
		_, err := o.toucher.Touch(ctx, v, relPath(opts.LibraryRoot, v))
		metadata.BestEffort(ctx, o.logger, "scan timestamps", err)

		td, ok := o.probes.GetMediaData(ctx, v)
		if !ok || td.DurationSeconds <= 0 {
			failures++
			continue
		}
		items[i].duration = td.DurationSeconds
	}

	if failures > 0 {
		if failures >= max(3, total/10) {
			obs.Status("Warning", fmt.Sprintf("Couldn't read duration for %d/%d files. ETA may be less accurate for those.", failures, total))
			o.logger.Warn(ctx, "Duration unreadable for %d/%d files", failures, total)
		} else {
			obs.Status("Scanning", fmt.Sprintf("Duration read failed for %d file(s); continuing.", failures))
		}
	}
	return true
}

func (o *implOrchestrator) process(ctx context.Context, items []item, slots []*processor.Result, opts Options, obs progress.Observer) {
	var workTotal float64
	for _, it := range items {
		workTotal += it.duration
	}

	chunks := Chunks(len(items), opts.ChunkThreshold, opts.ChunkSize)
	start := o.now()
	done := 0
	workDone := 0.0

	sample := func(didWork bool) progress.Sample {
		return progress.Sample{
			FilesDone:  done,
			FilesTotal: len(items),
			Elapsed:    o.now().Sub(start),
			WorkDone:   workDone,
			WorkTotal:  workTotal,
			DidWork:    didWork,
		}
	}

	// the in-flight video always reaches a terminal state
	itemCtx := context.WithoutCancel(ctx)

	for ci, chunk := range chunks {
		if ctx.Err() != nil {
			obs.Status("Cancelled", "Stopping between chunks.")
			return
		}
		if len(chunks) > 1 {
			obs.Status("Chunk", fmt.Sprintf("Processing chunk %d/%d (%d videos)", ci+1, len(chunks), chunk[1]-chunk[0]))
			o.logger.Info(ctx, "Chunk %d/%d: videos %d-%d", ci+1, len(chunks), chunk[0]+1, chunk[1])
		}

		for _, it := range items[chunk[0]:chunk[1]] {
			if ctx.Err() != nil {
				obs.Status("Cancelled", "Stopping after current file.")
				return
			}

			obs.Progress(sample(false))
			res := o.proc.Process(itemCtx, it.path, opts.Processor)
			slots[it.pos] = &res

			done++
			workDone += it.duration
			obs.Progress(sample(res.DidWork()))
		}
	}
}

func relPath(root, path string) string {
	if root == "" {
		return ""
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

func collect(slots []*processor.Result) []processor.Result {
	out := make([]processor.Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
