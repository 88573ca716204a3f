package logger

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
)

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

type implLogger struct {
	logger *log.Logger
	level  string
}

// New creates a Logger writing to stdout
func New(level string) Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a Logger writing to w. Unknown levels fall back to info.
func NewWithWriter(level string, w io.Writer) Logger {
	return &implLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  strings.ToLower(strings.TrimSpace(level)),
	}
}

// Discard returns a Logger that drops everything. Handy for tests.
func Discard() Logger {
	return NewWithWriter("error", io.Discard)
}

func (l *implLogger) shouldLog(level string) bool {
	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1
	}

	targetLevel, ok := levels[level]
	if !ok {
		return true
	}

	return targetLevel >= currentLevel
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("debug") {
		l.logger.Printf("[DEBUG] "+msg, args...)
	}
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("info") {
		l.logger.Printf("[INFO] "+msg, args...)
	}
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("warn") {
		l.logger.Printf("[WARN] "+msg, args...)
	}
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("error") {
		l.logger.Printf("[ERROR] "+msg, args...)
	}
}
