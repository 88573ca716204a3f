package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/config"
	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/internal/metadata"
	"github.com/nguyentantai21042004/subflow/internal/subtitle"
	"github.com/nguyentantai21042004/subflow/internal/transcriber"
	"github.com/nguyentantai21042004/subflow/internal/translator"
)

type fakeTranscriber struct {
	transcripts map[string]*transcriber.Transcript
	errs        map[string]error
	calls       int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, videoPath, model string) (*transcriber.Transcript, error) {
	f.calls++
	if err := f.errs[videoPath]; err != nil {
		return nil, err
	}
	return f.transcripts[videoPath], nil
}

type fakeTranslator struct {
	calls   int
	srcLang string
	err     error
}

func (f *fakeTranslator) Translate(ctx context.Context, srcLang, tgtLang string, texts []string) ([]string, error) {
	f.calls++
	f.srcLang = srcLang
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "EN:" + t
	}
	return out, nil
}

type testEnv struct {
	dir     string
	store   metadata.Store
	tr      *fakeTranscriber
	tl      *fakeTranslator
	built   int
	proc    Processor
	options Options
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	env := &testEnv{
		dir:   t.TempDir(),
		store: metadata.New(logger.Discard()),
		tr: &fakeTranscriber{
			transcripts: map[string]*transcriber.Transcript{},
			errs:        map[string]error{},
		},
		tl: &fakeTranslator{},
	}
	pool := translator.NewPool(time.Minute, func(model, srcLang string) (translator.Translator, error) {
		env.built++
		return env.tl, nil
	}, logger.Discard())
	t.Cleanup(pool.Close)

	env.proc = New(cfg, env.store, env.tr, pool, logger.Discard())
	env.options = DefaultOptions(cfg)
	return env
}

func (e *testEnv) video(t *testing.T, name, lang string, texts ...string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte("video:"+name), 0o644); err != nil {
		t.Fatal(err)
	}
	e.tr.transcripts[path] = &transcriber.Transcript{Language: lang, Cues: cues(texts...)}
	return path
}

func cues(texts ...string) []subtitle.Cue {
	out := make([]subtitle.Cue, len(texts))
	for i, text := range texts {
		out[i] = subtitle.Cue{
			Start: time.Duration(i) * time.Second,
			End:   time.Duration(i+1) * time.Second,
			Text:  text,
		}
	}
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func subtitleRun(t *testing.T, store metadata.Store, video string) metadata.SubtitleRun {
	t.Helper()
	var run metadata.SubtitleRun
	if !store.Read(video).Decode(metadata.KeySubtitleRun, &run) {
		t.Fatalf("no subtitle_run recorded for %s", video)
	}
	return run
}

func TestProcess_EnglishWrittenThenSkipped(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "talk.mp4", "en", "Hello there", "General Kenobi")
	ctx := context.Background()

	res := env.proc.Process(ctx, video, env.options)
	if res.Outcome != EnglishWritten || !res.OK || !res.DidWork() {
		t.Fatalf("Process() = %+v, want EnglishWritten", res)
	}
	if res.Video != "talk.mp4" || res.Path != video {
		t.Errorf("Result source = %q %q", res.Video, res.Path)
	}

	final, fallback := OutputPaths(video)
	if got, want := readFile(t, final), subtitle.Compose(cues("Hello there", "General Kenobi")); got != want {
		t.Errorf("final subtitle = %q, want %q", got, want)
	}
	if _, err := os.Stat(fallback); !os.IsNotExist(err) {
		t.Errorf("fallback should not exist")
	}

	run := subtitleRun(t, env.store, video)
	if run.Outcome != "EnglishWritten" || !run.EnglishWritten || run.Translated || run.DetectedLanguage != "en" {
		t.Errorf("subtitle_run = %+v", run)
	}
	sig, _ := metadata.SignatureOf(video)
	if ns, ok := metadata.NoSpeechFor(env.store.Read(video), sig); !ok || ns.Detected {
		t.Errorf("no_speech = %+v, %v, want reset to detected=false", ns, ok)
	}

	res = env.proc.Process(ctx, video, env.options)
	if res.Outcome != SkippedExistingOutput || res.DidWork() {
		t.Errorf("second Process() = %v, want SkippedExistingOutput", res.Outcome)
	}
	if env.tr.calls != 1 {
		t.Errorf("transcriber calls = %d, want 1", env.tr.calls)
	}
}

func TestProcess_NoSpeechCachedUntilFileChanges(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "ambient.mkv", "en", "♪", "...")
	ctx := context.Background()

	res := env.proc.Process(ctx, video, env.options)
	if res.Outcome != SkippedNoSpeech || !res.OK {
		t.Fatalf("Process() = %v, want SkippedNoSpeech", res.Outcome)
	}
	final, fallback := OutputPaths(video)
	for _, p := range []string{final, fallback} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should not be written", p)
		}
	}

	sig, _ := metadata.SignatureOf(video)
	ns, ok := metadata.NoSpeechFor(env.store.Read(video), sig)
	if !ok || !ns.Detected || ns.ModelUsed != "medium" || ns.CreatedAt == nil {
		t.Fatalf("no_speech = %+v, %v", ns, ok)
	}

	res = env.proc.Process(ctx, video, env.options)
	if res.Outcome != SkippedNoSpeechCached {
		t.Fatalf("second Process() = %v, want SkippedNoSpeechCached", res.Outcome)
	}
	if env.tr.calls != 1 {
		t.Errorf("transcriber calls = %d, want 1", env.tr.calls)
	}

	// content change invalidates the verdict
	if err := os.WriteFile(video, []byte("a longer re-encoded video"), 0o644); err != nil {
		t.Fatal(err)
	}
	res = env.proc.Process(ctx, video, env.options)
	if res.Outcome != SkippedNoSpeech {
		t.Errorf("after change Process() = %v, want SkippedNoSpeech", res.Outcome)
	}
	if env.tr.calls != 2 {
		t.Errorf("transcriber calls = %d, want 2", env.tr.calls)
	}
}

func TestProcess_UnmappableLanguage(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "mystery.avi", "xx", "blorp", "zib")

	res := env.proc.Process(context.Background(), video, env.options)
	if res.Outcome != UnmappableLanguage || res.OK {
		t.Fatalf("Process() = %+v, want failed UnmappableLanguage", res)
	}
	if !strings.Contains(res.Detail, `"xx"`) {
		t.Errorf("Detail = %q", res.Detail)
	}

	final, fallback := OutputPaths(video)
	if got := readFile(t, fallback); got != subtitle.Compose(cues("blorp", "zib")) {
		t.Errorf("fallback = %q", got)
	}
	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Errorf("final subtitle must not exist")
	}
	if env.built != 0 {
		t.Errorf("translator built for unmappable language")
	}
	if run := subtitleRun(t, env.store, video); run.Outcome != "UnmappableLanguage" {
		t.Errorf("subtitle_run.outcome = %q", run.Outcome)
	}
}

func TestProcess_SegmentOverflowWritesSourceVerbatim(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "lecture.mp4", "ja", "一", "二", "三", "四")
	opts := env.options
	opts.MaxSegments = 3

	res := env.proc.Process(context.Background(), video, opts)
	if res.Outcome != SkippedSegmentOverflow || !res.OK {
		t.Fatalf("Process() = %v, want SkippedSegmentOverflow", res.Outcome)
	}

	_, fallback := OutputPaths(video)
	want := subtitle.Compose(env.tr.transcripts[video].Cues)
	if got := readFile(t, fallback); got != want {
		t.Errorf("fallback = %q, want %q", got, want)
	}
	if env.built != 0 || env.tl.calls != 0 {
		t.Errorf("translator used: built=%d calls=%d", env.built, env.tl.calls)
	}
	if run := subtitleRun(t, env.store, video); run.SegmentCount != 4 {
		t.Errorf("subtitle_run.segment_count = %d, want 4", run.SegmentCount)
	}
}

func TestProcess_SegmentOverflowIsCached(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "seminar.mp4", "ja", "一", "二", "三", "四")
	ctx := context.Background()
	opts := env.options
	opts.MaxSegments = 3

	env.proc.Process(ctx, video, opts)
	res := env.proc.Process(ctx, video, opts)
	if res.Outcome != SkippedSegmentOverflow || !res.Cached || res.DidWork() {
		t.Fatalf("rerun Process() = %+v, want cached SkippedSegmentOverflow", res)
	}
	if env.tr.calls != 1 {
		t.Errorf("transcriber calls = %d, want 1", env.tr.calls)
	}

	// a higher ceiling no longer matches the recorded verdict
	opts.MaxSegments = 10
	if res = env.proc.Process(ctx, video, opts); res.Outcome != Translated {
		t.Errorf("Process() with higher ceiling = %v, want Translated", res.Outcome)
	}
	if env.tr.calls != 2 {
		t.Errorf("transcriber calls = %d, want 2", env.tr.calls)
	}
}

func TestProcess_TranslateOnlyModeSkipsEnglish(t *testing.T) {
	tests := []struct {
		name       string
		existing   string
		staleFinal bool
		wantFinal  bool
	}{
		{"skip mode", config.ExistingSkip, false, false},
		{"overwrite removes stale", config.ExistingOverwrite, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			video := env.video(t, "vlog.mp4", "en", "Hi everyone")
			final, _ := OutputPaths(video)
			if tt.staleFinal {
				if err := os.WriteFile(final, []byte("stale"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			opts := env.options
			opts.Existing = tt.existing
			opts.EnglishOutput = config.OutputNonEnglishOnly

			res := env.proc.Process(context.Background(), video, opts)
			if res.Outcome != SkippedEnglishTranslateOnlyMode || !res.OK {
				t.Fatalf("Process() = %v", res.Outcome)
			}
			if _, err := os.Stat(final); (err == nil) != tt.wantFinal {
				t.Errorf("final exists = %v, want %v", err == nil, tt.wantFinal)
			}
			if run := subtitleRun(t, env.store, video); run.EnglishWritten {
				t.Errorf("subtitle_run.english_written = true")
			}
		})
	}
}

func TestProcess_TranslateOnlySkipIsCached(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "podcast.mp4", "en", "Welcome back")
	ctx := context.Background()

	opts := env.options
	opts.EnglishOutput = config.OutputNonEnglishOnly

	res := env.proc.Process(ctx, video, opts)
	if res.Outcome != SkippedEnglishTranslateOnlyMode || res.Cached || !res.DidWork() {
		t.Fatalf("first Process() = %+v, want fresh SkippedEnglishTranslateOnlyMode", res)
	}

	for i := 0; i < 2; i++ {
		res = env.proc.Process(ctx, video, opts)
		if res.Outcome != SkippedEnglishTranslateOnlyMode || !res.OK || !res.Cached || res.DidWork() {
			t.Errorf("rerun %d: Process() = %+v, want cached skip", i+1, res)
		}
	}
	if env.tr.calls != 1 {
		t.Fatalf("transcriber calls = %d, want 1", env.tr.calls)
	}

	// switching to all-output mode must transcribe again and write English
	all := env.options
	all.EnglishOutput = config.OutputAll
	if res = env.proc.Process(ctx, video, all); res.Outcome != EnglishWritten {
		t.Errorf("all-output Process() = %v, want EnglishWritten", res.Outcome)
	}
	if env.tr.calls != 2 {
		t.Errorf("transcriber calls = %d, want 2", env.tr.calls)
	}
}

func TestProcess_TranslateOnlySkipInvalidatedBySignature(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "lecture.mp4", "en", "Good morning")
	ctx := context.Background()

	opts := env.options
	opts.EnglishOutput = config.OutputNonEnglishOnly
	env.proc.Process(ctx, video, opts)

	if err := os.WriteFile(video, []byte("re-encoded lecture, longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := env.proc.Process(ctx, video, opts)
	if res.Cached || !res.DidWork() {
		t.Errorf("Process() after change = %+v, want fresh run", res)
	}
	if env.tr.calls != 2 {
		t.Errorf("transcriber calls = %d, want 2", env.tr.calls)
	}
}

func TestProcess_Translated(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "drama.mkv", "ja", "こんにちは", "さようなら")
	final, fallback := OutputPaths(video)
	if err := os.WriteFile(fallback, []byte("old fallback"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := env.proc.Process(context.Background(), video, env.options)
	if res.Outcome != Translated || !res.OK {
		t.Fatalf("Process() = %+v, want Translated", res)
	}
	if env.tl.srcLang != "jpn_Jpan" {
		t.Errorf("translator source = %q, want jpn_Jpan", env.tl.srcLang)
	}

	want := subtitle.Compose(cues("EN:こんにちは", "EN:さようなら"))
	if got := readFile(t, final); got != want {
		t.Errorf("final = %q, want %q", got, want)
	}
	if _, err := os.Stat(fallback); !os.IsNotExist(err) {
		t.Errorf("stale fallback not removed")
	}

	run := subtitleRun(t, env.store, video)
	if !run.Translated || !run.EnglishWritten || run.TranslateModel != "gemini-2.5-flash" {
		t.Errorf("subtitle_run = %+v", run)
	}

	// another video in the same language reuses the pooled translator
	other := env.video(t, "drama2.mkv", "ja", "はい")
	env.proc.Process(context.Background(), other, env.options)
	if env.built != 1 {
		t.Errorf("translators built = %d, want 1", env.built)
	}
}

func TestProcess_TranslationFailureWritesFallback(t *testing.T) {
	env := newTestEnv(t)
	env.tl.err = errors.New("all API keys exhausted")
	video := env.video(t, "news.mp4", "fr", "Bonjour")

	res := env.proc.Process(context.Background(), video, env.options)
	if res.Outcome != TranslationFailure || res.OK {
		t.Fatalf("Process() = %+v, want failed TranslationFailure", res)
	}
	final, fallback := OutputPaths(video)
	if got := readFile(t, fallback); got != subtitle.Compose(cues("Bonjour")) {
		t.Errorf("fallback = %q", got)
	}
	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Errorf("final subtitle must not exist")
	}
}

func TestProcess_DecodeFailure(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "broken.mov", "en")
	env.tr.errs[video] = transcriber.ErrDecode

	res := env.proc.Process(context.Background(), video, env.options)
	if res.Outcome != DecodeFailure || res.OK || res.DidWork() {
		t.Fatalf("Process() = %+v, want DecodeFailure", res)
	}
	final, fallback := OutputPaths(video)
	for _, p := range []string{final, fallback} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should not be written", p)
		}
	}
	if run := subtitleRun(t, env.store, video); run.Outcome != "DecodeFailure" {
		t.Errorf("subtitle_run.outcome = %q", run.Outcome)
	}
}

func TestProcess_OverwriteResetsCache(t *testing.T) {
	env := newTestEnv(t)
	video := env.video(t, "redo.mp4", "en", "♪")
	ctx := context.Background()

	if res := env.proc.Process(ctx, video, env.options); res.Outcome != SkippedNoSpeech {
		t.Fatalf("first Process() = %v", res.Outcome)
	}

	// a better model now hears speech
	env.tr.transcripts[video] = &transcriber.Transcript{Language: "en", Cues: cues("Actually words")}
	final, fallback := OutputPaths(video)
	if err := os.WriteFile(final, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fallback, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := env.options
	opts.Existing = config.ExistingOverwrite
	res := env.proc.Process(ctx, video, opts)
	if res.Outcome != EnglishWritten {
		t.Fatalf("overwrite Process() = %v, want EnglishWritten", res.Outcome)
	}
	if got := readFile(t, final); !strings.Contains(got, "Actually words") {
		t.Errorf("final = %q", got)
	}
	if _, err := os.Stat(fallback); !os.IsNotExist(err) {
		t.Errorf("stale fallback not removed on overwrite")
	}

	var ns metadata.NoSpeech
	env.store.Read(video).Decode(metadata.KeyNoSpeech, &ns)
	if ns.Detected || ns.ModelUsed != "" || ns.CreatedAt != nil {
		t.Errorf("no_speech = %+v, want clean reset", ns)
	}
}

func TestOutcomeClassification(t *testing.T) {
	failures := map[Outcome]bool{DecodeFailure: true, UnmappableLanguage: true, TranslationFailure: true, WriteFailure: true}
	free := map[Outcome]bool{SkippedNoSpeechCached: true, SkippedExistingOutput: true, DecodeFailure: true}

	for _, o := range Outcomes() {
		if o.OK() == failures[o] {
			t.Errorf("%v.OK() = %v", o, o.OK())
		}
		if o.DidWork() == free[o] {
			t.Errorf("%v.DidWork() = %v", o, o.DidWork())
		}
		if strings.HasPrefix(o.String(), "Outcome(") {
			t.Errorf("outcome %d has no name", int(o))
		}
	}
	if len(Outcomes()) != 11 {
		t.Errorf("Outcomes() = %d, want 11", len(Outcomes()))
	}
}

func TestOutputPaths(t *testing.T) {
	final, fallback := OutputPaths("/lib/show/ep01.mkv")
	if final != "/lib/show/ep01.en.srt" || fallback != "/lib/show/ep01.source.srt" {
		t.Errorf("OutputPaths() = %q, %q", final, fallback)
	}
}
