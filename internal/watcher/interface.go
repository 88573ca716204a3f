package watcher

import "context"

// Watcher monitors a library for new or changed videos.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// BatchHandler receives a sorted set of videos that settled since the last
// batch. Only one handler call runs at a time.
type BatchHandler func(ctx context.Context, videos []string)
