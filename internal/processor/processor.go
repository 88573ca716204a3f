package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/config"
	"github.com/nguyentantai21042004/subflow/internal/fsx"
	"github.com/nguyentantai21042004/subflow/internal/langmap"
	"github.com/nguyentantai21042004/subflow/internal/metadata"
	"github.com/nguyentantai21042004/subflow/internal/subtitle"
	"github.com/nguyentantai21042004/subflow/internal/transcriber"
)

// job carries the state of one Process call between steps.
type job struct {
	videoPath string
	final     string
	fallback  string
	sig       metadata.Signature
	opts      Options

	transcript *transcriber.Transcript
	translated bool
	english    bool
}

func (j *job) status(stage, format string, args ...any) {
	if j.opts.Status != nil {
		j.opts.Status(stage, fmt.Sprintf(format, args...))
	}
}

// Process runs the per-file state machine and returns its terminal Result.
func (p *implProcessor) Process(ctx context.Context, videoPath string, opts Options) Result {
	start := p.now()
	name := filepath.Base(videoPath)

	if opts.MaxSegments <= 0 {
		opts.MaxSegments = p.cfg.Batch.MaxSegments
	}
	if opts.Model == "" {
		opts.Model = p.cfg.Whisper.Model
	}

	outcome, detail, cached := p.run(ctx, videoPath, opts)

	res := Result{
		Video:   name,
		Path:    videoPath,
		OK:      outcome.OK(),
		Outcome: outcome,
		Elapsed: p.now().Sub(start),
		Detail:  detail,
		Cached:  cached,
	}

	if res.OK {
		p.logger.Info(ctx, "[%s] %s (%s)", outcome, name, res.Elapsed.Round(time.Millisecond))
	} else {
		p.logger.Error(ctx, "[%s] %s: %s", outcome, name, detail)
	}
	return res
}

func (p *implProcessor) run(ctx context.Context, videoPath string, opts Options) (Outcome, string, bool) {
	sig, err := metadata.SignatureOf(videoPath)
	if err != nil {
		return DecodeFailure, err.Error(), false
	}

	j := &job{videoPath: videoPath, sig: sig, opts: opts}
	j.final, j.fallback = OutputPaths(videoPath)
	name := filepath.Base(videoPath)
	skip := opts.Existing != config.ExistingOverwrite

	// 1. cached verdicts
	if skip {
		rec := p.store.Read(videoPath)
		if ns, ok := metadata.NoSpeechFor(rec, sig); ok && ns.Detected {
			j.status("Skipped", "No-speech cached, skipping: %s", name)
			return SkippedNoSpeechCached, "no speech cached", true
		}
		if run, ok := metadata.SubtitleRunFor(rec, sig); ok {
			if outcome, ok := replay(run, j); ok {
				j.status("Skipped", "%s cached, skipping: %s", outcome, name)
				return outcome, "cached: " + outcome.String(), true
			}
		}
	}

	// 2. overwrite reset
	if !skip {
		p.removeStale(ctx, j.fallback)
		_, err := p.store.MergePatch(videoPath, metadata.Tree{metadata.KeyNoSpeech: metadata.Clear})
		metadata.BestEffort(ctx, p.logger, "clear no_speech", err)
	}

	// 3. existing output
	if skip && fsx.Exists(j.final) {
		j.status("Skipped", "Existing subtitle found, skipping: %s", name)
		return SkippedExistingOutput, "subtitle already exists", true
	}

	outcome, detail := p.transcribeAndWrite(ctx, j)
	p.recordRun(ctx, j, outcome)
	return outcome, detail, false
}

// replay returns the recorded outcome of an earlier run when it still
// holds for the same file under the current options. Only successful
// skips that would otherwise re-transcribe on every run are replayed.
func replay(run metadata.SubtitleRun, j *job) (Outcome, bool) {
	switch run.Outcome {
	case SkippedEnglishTranslateOnlyMode.String():
		mode, _ := run.Config["english_output"].(string)
		if j.opts.EnglishOutput == config.OutputNonEnglishOnly && mode == config.OutputNonEnglishOnly {
			return SkippedEnglishTranslateOnlyMode, true
		}
	case SkippedSegmentOverflow.String():
		if run.SegmentCount > j.opts.MaxSegments && run.TranscribeModel == j.opts.Model && fsx.Exists(j.fallback) {
			return SkippedSegmentOverflow, true
		}
	}
	return 0, false
}

func (p *implProcessor) transcribeAndWrite(ctx context.Context, j *job) (Outcome, string) {
	name := filepath.Base(j.videoPath)

	// 4. transcribe
	j.status("Transcribe", "Transcribing: %s", name)
	tr, err := p.transcriber.Transcribe(ctx, j.videoPath, j.opts.Model)
	if err != nil {
		j.status("Skipped", "Audio decode failed: %s", name)
		return DecodeFailure, err.Error()
	}
	j.transcript = tr

	// 5. no speech
	if !subtitle.HasRealText(tr.Cues) {
		j.status("Skipped", "No speech detected: %s", name)
		return SkippedNoSpeech, "no speech detected"
	}

	source := subtitle.Compose(tr.Cues)

	// 6. segment ceiling
	if len(tr.Cues) > j.opts.MaxSegments {
		if err := p.writeSubtitle(ctx, j.fallback, source); err != nil {
			return WriteFailure, err.Error()
		}
		j.status("Skipped", "Too many subtitle segments (%d), saved source only: %s", len(tr.Cues), filepath.Base(j.fallback))
		return SkippedSegmentOverflow, fmt.Sprintf("%d segments exceed limit %d", len(tr.Cues), j.opts.MaxSegments)
	}

	// 7. English source
	if langmap.IsEnglish(tr.Language) {
		if j.opts.EnglishOutput == config.OutputNonEnglishOnly {
			if j.opts.Existing == config.ExistingOverwrite {
				p.removeStale(ctx, j.final)
			}
			j.status("Skipped", "English detected, not writing subtitle in translate-only mode: %s", name)
			return SkippedEnglishTranslateOnlyMode, "english source"
		}

		j.status("Finalize", "Writing English subtitle: %s", name)
		if err := p.writeSubtitle(ctx, j.final, source); err != nil {
			return WriteFailure, err.Error()
		}
		j.english = true
		return EnglishWritten, "english subtitle written"
	}

	// 8. language mapping
	srcCode, ok := p.langs.Lookup(tr.Language)
	if !ok {
		if err := p.writeSubtitle(ctx, j.fallback, source); err != nil {
			return WriteFailure, err.Error()
		}
		j.status("Translation skipped", "Detected %q but no mapping, wrote source fallback", tr.Language)
		return UnmappableLanguage, fmt.Sprintf("no mapping for %q, wrote source fallback", tr.Language)
	}

	// 9. translate
	j.status("Translate", "Translating: %s (detected %s)", name, tr.Language)
	english, err := p.translate(ctx, srcCode, tr.Cues)
	if err != nil {
		if werr := p.writeSubtitle(ctx, j.fallback, source); werr != nil {
			return WriteFailure, fmt.Sprintf("%v; %v", err, werr)
		}
		return TranslationFailure, fmt.Sprintf("%v (wrote source fallback)", err)
	}

	j.status("Finalize", "Writing English subtitle: %s", name)
	if err := p.writeSubtitle(ctx, j.final, subtitle.Compose(english)); err != nil {
		return WriteFailure, err.Error()
	}
	p.removeStale(ctx, j.fallback)
	j.translated = true
	j.english = true
	return Translated, "translated to English from " + tr.Language
}

func (p *implProcessor) translate(ctx context.Context, srcCode string, cues []subtitle.Cue) ([]subtitle.Cue, error) {
	t, err := p.translators.Get(ctx, p.cfg.Translation.Model, srcCode)
	if err != nil {
		return nil, fmt.Errorf("get translator: %w", err)
	}

	texts, err := t.Translate(ctx, srcCode, p.cfg.Translation.TargetLanguage, subtitle.Texts(cues))
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	out, err := subtitle.WithTexts(cues, texts)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return out, nil
}

// recordRun merges subtitle_run for every outcome that reached the
// transcriber, and the no_speech verdict when one was reached.
func (p *implProcessor) recordRun(ctx context.Context, j *job, outcome Outcome) {
	if outcome.cached() {
		return
	}
	now := p.now().UTC()

	run := metadata.SubtitleRun{
		Outcome:         outcome.String(),
		Translated:      j.translated,
		EnglishWritten:  j.english,
		TranscribeModel: j.opts.Model,
		Config: map[string]any{
			"existing":        j.opts.Existing,
			"english_output":  j.opts.EnglishOutput,
			"max_segments":    j.opts.MaxSegments,
			"target_language": p.cfg.Translation.TargetLanguage,
		},
		Signature:  j.sig,
		FinishedAt: now,
	}
	if j.transcript != nil {
		run.DetectedLanguage = j.transcript.Language
		run.LanguageProb = j.transcript.Probabilities[j.transcript.Language]
		run.SegmentCount = len(j.transcript.Cues)
	}
	if j.translated {
		run.TranslateModel = p.cfg.Translation.Model
	}

	runTree, err := metadata.ToTree(run)
	if err != nil {
		metadata.BestEffort(ctx, p.logger, "encode subtitle_run", err)
		return
	}
	patch := metadata.Tree{metadata.KeySubtitleRun: runTree}

	sig := j.sig
	switch {
	case outcome == SkippedNoSpeech:
		if ns, err := metadata.ToTree(metadata.NoSpeech{
			Detected:  true,
			ModelUsed: j.opts.Model,
			CreatedAt: &now,
			Signature: &sig,
		}); err == nil {
			patch[metadata.KeyNoSpeech] = ns
		}
	case j.english:
		if ns, err := metadata.ToTree(metadata.NoSpeech{Detected: false, Signature: &sig}); err == nil {
			ns["model_used"] = metadata.Clear
			ns["created_at"] = metadata.Clear
			patch[metadata.KeyNoSpeech] = ns
		}
	}

	_, err = p.store.MergePatch(j.videoPath, patch)
	metadata.BestEffort(ctx, p.logger, "record subtitle_run", err)
}
