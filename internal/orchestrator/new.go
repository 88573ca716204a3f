package orchestrator

import (
	"time"

	"github.com/nguyentantai21042004/subflow/internal/logger"
	"github.com/nguyentantai21042004/subflow/internal/probe"
	"github.com/nguyentantai21042004/subflow/internal/processor"
)

// scanStatusInterval throttles status events during the scan phase.
const scanStatusInterval = 750 * time.Millisecond

type implOrchestrator struct {
	proc    processor.Processor
	probes  probe.Cache
	toucher Toucher
	logger  logger.Logger
	now     func() time.Time
}

// New creates an Orchestrator
func New(proc processor.Processor, probes probe.Cache, toucher Toucher, log logger.Logger) Orchestrator {
	return &implOrchestrator{
		proc:    proc,
		probes:  probes,
		toucher: toucher,
		logger:  log,
		now:     time.Now,
	}
}
