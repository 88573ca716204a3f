package probe

import (
	"context"
	"errors"
	"sync"

	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/internal/metadata"
	"github.com/nguyentantai21042004/subflow/pkg/executor"
)

type implCache struct {
	prober  Prober
	store   metadata.Store
	logger  logger.Logger
	missing sync.Once
}

// NewCache creates a probe Cache persisting through the sidecar store
func NewCache(prober Prober, store metadata.Store, log logger.Logger) Cache {
	return &implCache{prober: prober, store: store, logger: log}
}

func (c *implCache) GetMediaData(ctx context.Context, videoPath string) (TechnicalData, bool) {
	sig, err := metadata.SignatureOf(videoPath)
	if err != nil {
		c.logger.Warn(ctx, "Cannot stat %s: %v", videoPath, err)
		return TechnicalData{}, false
	}

	var cached TechnicalData
	if c.store.Read(videoPath).Decode(metadata.KeyTechnicalData, &cached) && cached.Signature == sig {
		return cached, true
	}

	res, err := c.prober.Probe(ctx, videoPath)
	if err != nil {
		if errors.Is(err, executor.ErrNotFound) {
			c.missing.Do(func() {
				c.logger.Warn(ctx, "ffprobe not installed, media durations unavailable: %v", err)
			})
		} else {
			c.logger.Debug(ctx, "Probe failed for %s: %v", videoPath, err)
		}
		return TechnicalData{}, false
	}

	td := newTechnicalData(res, sig)
	patch, err := metadata.ToTree(td)
	if err == nil {
		_, err = c.store.MergePatch(videoPath, metadata.Tree{metadata.KeyTechnicalData: patch})
	}
	metadata.BestEffort(ctx, c.logger, "technical_data", err)

	return td, true
}
