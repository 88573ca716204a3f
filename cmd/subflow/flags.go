package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/config"
)

const defaultConfigPath = "config.yaml"

// cliOptions holds flag values. Batch overrides are applied to the loaded
// config only when the flag was given.
type cliOptions struct {
	configPath     string
	existing       string
	englishOutput  string
	recursive      bool
	chunkSize      int
	chunkThreshold int
	maxSegments    int
	model          string
	logLevel       string
	jsonOutput     bool
	quiet          bool
	debounce       time.Duration
	initialScan    bool

	set  map[string]bool
	args []string
}

func newFlagSet(name string, opts *cliOptions, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("subflow "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "YAML config file (default ./config.yaml when present)")
	fs.StringVar(&opts.existing, "existing", "", "Existing subtitles: skip | overwrite")
	fs.StringVar(&opts.englishOutput, "english-output", "", "English sources: all | non_english_only")
	fs.BoolVar(&opts.recursive, "recursive", true, "Descend into subdirectories")
	fs.IntVar(&opts.chunkSize, "chunk-size", 0, "Videos per chunk for large batches")
	fs.IntVar(&opts.chunkThreshold, "chunk-threshold", 0, "Batch size above which chunking starts")
	fs.IntVar(&opts.maxSegments, "max-segments", 0, "Cue count above which translation is skipped")
	fs.StringVar(&opts.model, "model", "", "Whisper model name or ggml model path")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug | info | warn | error")
	fs.BoolVar(&opts.quiet, "quiet", false, "Disable the progress display")

	if name == "run" {
		fs.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON on stdout")
	}
	if name == "watch" {
		fs.DurationVar(&opts.debounce, "debounce", 2*time.Second, "Quiet period before new videos are processed")
		fs.BoolVar(&opts.initialScan, "initial", true, "Process the whole library before watching")
	}
	return fs
}

func parseFlags(name string, args []string, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{set: map[string]bool{}}
	fs := newFlagSet(name, opts, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.args = fs.Args()
	return opts, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *cliOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.set["existing"] {
		cfg.Batch.Existing = opts.existing
	}
	if opts.set["english-output"] {
		cfg.Batch.EnglishOutput = opts.englishOutput
	}
	if opts.set["recursive"] {
		cfg.Batch.Recursive = opts.recursive
	}
	if opts.set["chunk-size"] {
		cfg.Batch.ChunkSize = opts.chunkSize
	}
	if opts.set["chunk-threshold"] {
		cfg.Batch.ChunkThreshold = opts.chunkThreshold
	}
	if opts.set["max-segments"] {
		cfg.Batch.MaxSegments = opts.maxSegments
	}
	if opts.set["log-level"] {
		cfg.Logging.Level = strings.ToLower(opts.logLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate flags: %w", err)
	}
	return cfg, nil
}

var errNoInputs = errors.New("no input paths given")
