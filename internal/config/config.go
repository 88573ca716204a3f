package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Existing-output modes
const (
	ExistingSkip      = "skip"
	ExistingOverwrite = "overwrite"
)

// English output modes
const (
	OutputAll            = "all"
	OutputNonEnglishOnly = "non_english_only"
)

type Config struct {
	Whisper     WhisperConfig     `yaml:"whisper"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Translation TranslationConfig `yaml:"translation"`
	Batch       BatchConfig       `yaml:"batch"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type WhisperConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"`
	Threads    int    `yaml:"threads"`
	BeamSize   int    `yaml:"beam_size"`
	Prompt     string `yaml:"prompt"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
}

type TranslationConfig struct {
	Model          string            `yaml:"model"`
	APIKeys        []string          `yaml:"api_keys"`
	APIKeyEnv      string            `yaml:"api_key_env"`
	TargetLanguage string            `yaml:"target_language"`
	MaxBatchTokens int               `yaml:"max_batch_tokens"`
	TokenizerPath  string            `yaml:"tokenizer_path"`
	IdleTTL        time.Duration     `yaml:"idle_ttl"`
	LanguageMap    map[string]string `yaml:"language_map"`
}

type BatchConfig struct {
	Existing       string `yaml:"existing"`
	EnglishOutput  string `yaml:"english_output"`
	Recursive      bool   `yaml:"recursive"`
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkThreshold int    `yaml:"chunk_threshold"`
	MaxSegments    int    `yaml:"max_segments"`
}

type PathsConfig struct {
	LibraryRoot string `yaml:"library_root"`
	Temp        string `yaml:"temp"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a validated config used when no config file is present
func Default() *Config {
	cfg := &Config{}
	cfg.Batch.Recursive = true
	_ = cfg.Validate()
	return cfg
}

// Load reads a YAML config file and fills defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	cfg.Batch.Recursive = true
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks enumerations and fills defaults for missing values
func (c *Config) Validate() error {
	c.Batch.Existing = strings.ToLower(strings.TrimSpace(c.Batch.Existing))
	if c.Batch.Existing == "" {
		c.Batch.Existing = ExistingSkip
	}
	if c.Batch.Existing != ExistingSkip && c.Batch.Existing != ExistingOverwrite {
		return fmt.Errorf("batch.existing must be %q or %q, got %q", ExistingSkip, ExistingOverwrite, c.Batch.Existing)
	}

	c.Batch.EnglishOutput = strings.ToLower(strings.TrimSpace(c.Batch.EnglishOutput))
	if c.Batch.EnglishOutput == "" {
		c.Batch.EnglishOutput = OutputAll
	}
	if c.Batch.EnglishOutput != OutputAll && c.Batch.EnglishOutput != OutputNonEnglishOnly {
		return fmt.Errorf("batch.english_output must be %q or %q, got %q", OutputAll, OutputNonEnglishOnly, c.Batch.EnglishOutput)
	}

	if c.Batch.ChunkSize < 0 || c.Batch.ChunkThreshold < 0 || c.Batch.MaxSegments < 0 {
		return fmt.Errorf("batch sizes must not be negative")
	}
	if c.Batch.ChunkSize == 0 {
		c.Batch.ChunkSize = 750
	}
	if c.Batch.ChunkThreshold == 0 {
		c.Batch.ChunkThreshold = 1500
	}
	if c.Batch.MaxSegments == 0 {
		c.Batch.MaxSegments = 8000
	}

	if c.Whisper.BinaryPath == "" {
		c.Whisper.BinaryPath = "whisper-cli"
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "medium"
	}
	if c.Whisper.ModelPath == "" {
		c.Whisper.ModelPath = "models/ggml-" + c.Whisper.Model + ".bin"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Whisper.BeamSize == 0 {
		c.Whisper.BeamSize = 2
	}

	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.FFmpeg.ProbePath == "" {
		c.FFmpeg.ProbePath = "ffprobe"
	}

	if c.Translation.Model == "" {
		c.Translation.Model = "gemini-2.5-flash"
	}
	if c.Translation.APIKeyEnv == "" {
		c.Translation.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = "eng_Latn"
	}
	if c.Translation.MaxBatchTokens == 0 {
		c.Translation.MaxBatchTokens = 400
	}
	if c.Translation.IdleTTL == 0 {
		c.Translation.IdleTTL = 30 * time.Minute
	}

	if c.Paths.Temp == "" {
		c.Paths.Temp = os.TempDir()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// APIKeys returns the configured Gemini keys, falling back to a comma
// separated list in the configured environment variable.
func (c *Config) APIKeys() []string {
	keys := make([]string, 0, len(c.Translation.APIKeys))
	for _, k := range c.Translation.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		return keys
	}
	for _, k := range strings.Split(os.Getenv(c.Translation.APIKeyEnv), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
