package translator

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/subflow/internal/logger"
	"google.golang.org/genai"
)

// generateFunc sends one prompt with the given API key and returns the text reply.
type generateFunc func(ctx context.Context, key, prompt string) (string, error)

type implGemini struct {
	apiKeys    []string
	currentKey int
	model      string
	maxTokens  int
	counter    TokenCounter
	logger     logger.Logger

	mu       sync.Mutex
	clients  map[string]*genai.Client
	generate generateFunc
}

// NewGemini creates a Translator calling the Gemini API with model. Requests
// rotate through apiKeys when a key is rate limited.
func NewGemini(model string, apiKeys []string, maxTokens int, counter TokenCounter, log logger.Logger) (Translator, error) {
	if len(apiKeys) == 0 {
		return nil, ErrNoAPIKeys
	}
	if counter == nil {
		counter = HeuristicCounter()
	}
	g := &implGemini{
		apiKeys:   apiKeys,
		model:     model,
		maxTokens: maxTokens,
		counter:   counter,
		logger:    log,
		clients:   make(map[string]*genai.Client),
	}
	g.generate = g.callGemini
	return g, nil
}
