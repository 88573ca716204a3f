package translator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/patrickmn/go-cache"
)

// Pool keeps one translator per (model, source language) alive while it is
// in use and drops it after ttl without a Get.
type Pool struct {
	mu      sync.Mutex
	items   *cache.Cache
	factory Factory
	logger  logger.Logger
}

// NewPool creates a pool building translators with factory.
func NewPool(ttl time.Duration, factory Factory, log logger.Logger) *Pool {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}

	p := &Pool{
		items:   cache.New(ttl, cleanup),
		factory: factory,
		logger:  log,
	}
	p.items.OnEvicted(func(key string, v interface{}) {
		p.logger.Debug(context.Background(), "Translator %s evicted", key)
		if c, ok := v.(io.Closer); ok {
			_ = c.Close()
		}
	})
	return p
}

func poolKey(model, srcLang string) string {
	return model + "|" + srcLang
}

// Get returns the cached translator for the pair or builds a new one.
// Every hit extends the idle deadline.
func (p *Pool) Get(ctx context.Context, model, srcLang string) (Translator, error) {
	key := poolKey(model, srcLang)

	p.mu.Lock()
	defer p.mu.Unlock()

	// expired entries are swept first so their translators get closed
	// instead of being overwritten by Set
	p.items.DeleteExpired()

	if v, ok := p.items.Get(key); ok {
		t := v.(Translator)
		p.items.Set(key, t, cache.DefaultExpiration)
		return t, nil
	}

	t, err := p.factory(model, srcLang)
	if err != nil {
		return nil, fmt.Errorf("build translator %s: %w", key, err)
	}
	p.items.Set(key, t, cache.DefaultExpiration)
	p.logger.Debug(ctx, "Translator %s loaded", key)
	return t, nil
}

// Len reports how many translators are currently held.
func (p *Pool) Len() int {
	return p.items.ItemCount()
}

// Evict drops expired translators now instead of waiting for the janitor.
func (p *Pool) Evict() {
	p.items.DeleteExpired()
}

// Close releases every held translator.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items.DeleteExpired()
	for key := range p.items.Items() {
		p.items.Delete(key)
	}
}
