package progress

import "sync/atomic"

// Observer receives status and progress from a running batch.
type Observer interface {
	Status(stage, detail string)
	Progress(s Sample)
}

type Kind int

const (
	KindStatus Kind = iota
	KindProgress
	KindDone
)

// Event is what the Emitter hands to the presentation side.
type Event struct {
	Kind   Kind
	Stage  string
	Detail string
	Sample Sample
}

// Emitter is an Observer that forwards events over a buffered channel.
// Publishing never blocks: events are dropped while the consumer lags.
// Close delivers a final KindDone event and closes the channel, so the
// consumer must keep draining until then. Close must follow the last
// Status or Progress call.
type Emitter struct {
	ch      chan Event
	dropped atomic.Int64
	closed  atomic.Bool
}

func NewEmitter(buffer int) *Emitter {
	if buffer < 1 {
		buffer = 1
	}
	return &Emitter{ch: make(chan Event, buffer)}
}

func (e *Emitter) Events() <-chan Event {
	return e.ch
}

func (e *Emitter) Status(stage, detail string) {
	e.publish(Event{Kind: KindStatus, Stage: stage, Detail: detail})
}

func (e *Emitter) Progress(s Sample) {
	e.publish(Event{Kind: KindProgress, Sample: s})
}

// Dropped reports how many events were discarded.
func (e *Emitter) Dropped() int64 {
	return e.dropped.Load()
}

func (e *Emitter) publish(ev Event) {
	if e.closed.Load() {
		return
	}
	select {
	case e.ch <- ev:
	default:
		e.dropped.Add(1)
	}
}

// Close sends the done event and closes the channel. It is a no-op after
// the first call.
func (e *Emitter) Close() {
	if e.closed.Swap(true) {
		return
	}
	e.ch <- Event{Kind: KindDone}
	close(e.ch)
}
