package translator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

const translatePrompt = `Translate each numbered subtitle line below from %s to %s.
Reply with exactly %d lines in the form "<number>: <translation>", one per input line, in the same order.
Do not merge, split, skip or explain lines.

%s`

var reNumbered = regexp.MustCompile(`^\s*(\d+)\s*[:.)]\s?(.*)$`)

var errCountDrift = errors.New("translated line count differs from input")

// Translate sends non-blank texts to Gemini in token-bounded batches. A batch
// whose reply does not line up with its input is retried line by line.
func (g *implGemini) Translate(ctx context.Context, srcLang, tgtLang string, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)

	var idx []int
	var pending []string
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		idx = append(idx, i)
		pending = append(pending, t)
	}
	if len(pending) == 0 {
		return out, nil
	}

	batches := Batches(pending, g.counter, g.maxTokens)
	for bi, batch := range batches {
		src := make([]string, len(batch))
		for j, k := range batch {
			src[j] = pending[k]
		}

		got, err := g.translateBatch(ctx, srcLang, tgtLang, src)
		if errors.Is(err, errCountDrift) {
			g.logger.Warn(ctx, "Batch %d/%d returned a different line count, translating line by line", bi+1, len(batches))
			got, err = g.translateEach(ctx, srcLang, tgtLang, src)
		}
		if err != nil {
			return nil, fmt.Errorf("translate batch %d/%d: %w", bi+1, len(batches), err)
		}

		for j, k := range batch {
			out[idx[k]] = got[j]
		}
	}

	return out, nil
}

func (g *implGemini) translateEach(ctx context.Context, srcLang, tgtLang string, src []string) ([]string, error) {
	got := make([]string, len(src))
	for i, line := range src {
		r, err := g.translateBatch(ctx, srcLang, tgtLang, []string{line})
		if err != nil {
			return nil, err
		}
		got[i] = r[0]
	}
	return got, nil
}

func (g *implGemini) translateBatch(ctx context.Context, srcLang, tgtLang string, src []string) ([]string, error) {
	var b strings.Builder
	for i, line := range src {
		// one cue per prompt line; multi-line cues are joined
		fmt.Fprintf(&b, "%d: %s\n", i+1, strings.Join(strings.Fields(line), " "))
	}
	prompt := fmt.Sprintf(translatePrompt, srcLang, tgtLang, len(src), b.String())

	reply, err := g.callWithRotation(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseNumbered(reply, len(src))
}

// parseNumbered maps "<n>: text" reply lines back to input positions.
// A single-line request accepts an unnumbered reply.
func parseNumbered(reply string, n int) ([]string, error) {
	got := make([]string, n)
	seen := 0
	for _, line := range strings.Split(reply, "\n") {
		m := reNumbered.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil || num < 1 || num > n || got[num-1] != "" {
			return nil, errCountDrift
		}
		got[num-1] = strings.TrimSpace(m[2])
		seen++
	}

	if seen == 0 && n == 1 {
		if text := strings.TrimSpace(reply); text != "" {
			return []string{text}, nil
		}
	}
	if seen != n {
		return nil, errCountDrift
	}
	return got, nil
}

// callWithRotation rotates API keys on 429 / quota errors.
func (g *implGemini) callWithRotation(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for range len(g.apiKeys) {
		key, pos := g.key()
		text, err := g.generate(ctx, key, prompt)
		if err != nil {
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Key %d rate limited, rotating...", pos+1)
				g.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}
		return text, nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func (g *implGemini) key() (string, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKeys[g.currentKey], g.currentKey
}

func (g *implGemini) rotateKey() {
	g.mu.Lock()
	g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
	g.mu.Unlock()
}

func (g *implGemini) client(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[key]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	g.clients[key] = c
	return c, nil
}

func (g *implGemini) callGemini(ctx context.Context, key, prompt string) (string, error) {
	client, err := g.client(ctx, key)
	if err != nil {
		return "", err
	}

	temperature := float32(0.2)
	result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		return text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}
