package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/config"
	"github.com/nguyentantai21042004/subflow/internal/orchestrator"
	"github.com/nguyentantai21042004/subflow/internal/processor"
	"github.com/nguyentantai21042004/subflow/internal/progress"
)

func TestDispatchUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	ctx := context.Background()

	if code := dispatch(ctx, nil, nil, &out, &errOut); code != exitUsage {
		t.Errorf("dispatch(nil) = %d, want %d", code, exitUsage)
	}
	if code := dispatch(ctx, []string{"transcode"}, nil, &out, &errOut); code != exitUsage {
		t.Errorf("dispatch(unknown) = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(errOut.String(), `unknown command "transcode"`) {
		t.Errorf("stderr = %q", errOut.String())
	}
	if code := dispatch(ctx, []string{"help"}, nil, &out, &errOut); code != exitOK {
		t.Errorf("dispatch(help) = %d, want 0", code)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subflow.yaml")
	yaml := "batch:\n  existing: skip\n  chunk_size: 100\n  recursive: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	opts, err := parseFlags("run", []string{
		"-config", path,
		"-existing", "overwrite",
		"-recursive=false",
		"-max-segments", "50",
		"video.mkv",
	}, &stderr)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Batch.Existing != config.ExistingOverwrite {
		t.Errorf("Existing = %q, want overwrite", cfg.Batch.Existing)
	}
	if cfg.Batch.Recursive {
		t.Error("Recursive flag not applied")
	}
	if cfg.Batch.ChunkSize != 100 || cfg.Batch.ChunkThreshold != 1500 {
		t.Errorf("chunking = %d/%d, want file value and default", cfg.Batch.ChunkSize, cfg.Batch.ChunkThreshold)
	}
	if cfg.Batch.MaxSegments != 50 {
		t.Errorf("MaxSegments = %d, want 50", cfg.Batch.MaxSegments)
	}
	if len(opts.args) != 1 || opts.args[0] != "video.mkv" {
		t.Errorf("args = %v", opts.args)
	}
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags("run", []string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(opts); err == nil {
		t.Error("loadConfig() with a missing explicit file should fail")
	}

	opts, _ = parseFlags("run", []string{"-english-output", "klingon"}, &stderr)
	opts.configPath = ""
	if _, err := loadConfig(opts); err == nil {
		t.Error("loadConfig() should reject an unknown english-output mode")
	}
}

func TestReadInputs(t *testing.T) {
	got, err := readInputs([]string{"-"}, strings.NewReader(`["/a.mp4", "/b dir"]`))
	if err != nil || len(got) != 2 || got[1] != "/b dir" {
		t.Errorf("readInputs(stdin) = %v, %v", got, err)
	}
	if _, err := readInputs([]string{"-"}, strings.NewReader(`not json`)); err == nil {
		t.Error("readInputs() should reject malformed stdin")
	}
	if _, err := readInputs(nil, nil); err != errNoInputs {
		t.Errorf("readInputs(nil) error = %v, want errNoInputs", err)
	}
}

func TestWriteJSON(t *testing.T) {
	results := []processor.Result{
		{Video: "a.mp4", Path: "/v/a.mp4", OK: true, Outcome: processor.Translated, Elapsed: time.Second},
		{Video: "b.mp4", Path: "/v/b.mp4", OK: false, Outcome: processor.DecodeFailure, Detail: "boom"},
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, results, orchestrator.Summarize(results)); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Results []struct {
			Outcome string `json:"outcome"`
			OK      bool   `json:"ok"`
		} `json:"results"`
		Summary struct {
			Failed    int            `json:"failed"`
			ByOutcome map[string]int `json:"by_outcome"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.Results[0].Outcome != "Translated" || got.Results[1].OK {
		t.Errorf("results = %+v", got.Results)
	}
	if got.Summary.Failed != 1 || got.Summary.ByOutcome["DecodeFailure"] != 1 {
		t.Errorf("summary = %+v", got.Summary)
	}
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name string
		snap progress.Snapshot
		want string
	}{
		{
			"learning",
			progress.Snapshot{FilesDone: 1, FilesTotal: 10, Elapsed: 65 * time.Second, WorkDone: 60, WorkLeft: 540, WorkTotal: 600},
			"Files: 1/10 | Elapsed: 1:05 | ETA: estimating… | Duration: 1:00 done / 9:00 left (of 10:00)",
		},
		{
			"estimate",
			progress.Snapshot{FilesDone: 5, FilesTotal: 10, Elapsed: time.Hour, WorkDone: 300, HasEstimate: true, Remaining: 90 * time.Second},
			"Files: 5/10 | Elapsed: 1:00:00 | ETA: 1:30 | Duration: 5:00 done",
		},
	}
	for _, tt := range tests {
		if got := statusLine(tt.snap); got != tt.want {
			t.Errorf("%s: statusLine() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestProgressUIConsumesUntilDone(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	em := progress.NewEmitter(16)

	em.Status("Scanning", "Reading media info (1/2)…")
	em.Progress(progress.Sample{FilesTotal: 2})
	em.Progress(progress.Sample{FilesDone: 1, FilesTotal: 2, Elapsed: time.Second, WorkDone: 10, WorkTotal: 20, DidWork: true})
	em.Progress(progress.Sample{FilesDone: 2, FilesTotal: 2, Elapsed: 2 * time.Second, WorkDone: 20, WorkTotal: 20, DidWork: true})

	done := make(chan struct{})
	go func() {
		ui.consume(em.Events())
		close(done)
	}()
	em.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consume() did not return after the done event")
	}
	if !strings.Contains(buf.String(), "Scanning: Reading media info") || !strings.Contains(buf.String(), "Files: 2/2") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintSummary(t *testing.T) {
	results := []processor.Result{
		{Video: "a.mp4", OK: true, Outcome: processor.EnglishWritten},
		{Video: "b.mp4", OK: false, Outcome: processor.UnmappableLanguage, Detail: `no mapping for "xx"`},
	}
	var buf bytes.Buffer
	printSummary(&buf, results, orchestrator.Summarize(results))

	out := buf.String()
	for _, want := range []string{"Processed 2 video(s): 1 ok, 1 failed", "EnglishWritten", `FAIL b.mp4 [UnmappableLanguage]: no mapping for "xx"`} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
