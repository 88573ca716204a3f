package metadata

import (
	"sync"
	"time"

	"github.com/nguyentantai21042004/subflow/internal/logger"
)

// SidecarSuffix is appended to the full video file name.
const SidecarSuffix = ".meta.json"

type implStore struct {
	logger logger.Logger
	now    func() time.Time
	newID  func() string

	// one lock per sidecar path
	locks sync.Map
}

// New creates a sidecar Store
func New(log logger.Logger) Store {
	return &implStore{
		logger: log,
		now:    time.Now,
		newID:  newMediaID,
	}
}
