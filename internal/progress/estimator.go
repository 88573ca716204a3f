package progress

import "time"

const (
	// DefaultAlpha is the smoothing factor for new rate observations.
	DefaultAlpha = 0.3
	// MinWindow is the wall time that must accumulate before a rate update.
	MinWindow = 500 * time.Millisecond
)

// Estimator turns progress samples into a smoothed remaining-time estimate.
// Only intervals ending in a DidWork sample feed the rate, so free skips
// neither speed it up nor dilute it.
type Estimator struct {
	alpha float64

	last    *Sample
	accWork float64
	accTime time.Duration

	rate    float64
	learned bool
	snap    Snapshot
}

func NewEstimator() *Estimator {
	return &Estimator{alpha: DefaultAlpha}
}

// Observe feeds one sample and returns the updated snapshot.
func (e *Estimator) Observe(s Sample) Snapshot {
	if e.last != nil && s.DidWork {
		dw := s.WorkDone - e.last.WorkDone
		dt := s.Elapsed - e.last.Elapsed
		if dw >= 0 && dt > 0 {
			e.accWork += dw
			e.accTime += dt
		}
	}
	last := s
	e.last = &last

	if e.accTime > MinWindow && e.accWork > 0 {
		inst := e.accWork / e.accTime.Seconds()
		if e.learned {
			e.rate = e.alpha*inst + (1-e.alpha)*e.rate
		} else {
			e.rate = inst
			e.learned = true
		}
		e.accWork, e.accTime = 0, 0
	}

	left := s.WorkTotal - s.WorkDone
	if left < 0 {
		left = 0
	}
	e.snap = Snapshot{
		FilesDone:  s.FilesDone,
		FilesTotal: s.FilesTotal,
		Elapsed:    s.Elapsed,
		WorkDone:   s.WorkDone,
		WorkLeft:   left,
		WorkTotal:  s.WorkTotal,
	}
	if e.learned && e.rate > 0 {
		e.snap.Rate = e.rate
		e.snap.Remaining = time.Duration(left / e.rate * float64(time.Second))
		e.snap.HasEstimate = true
	}
	return e.snap
}

// Snapshot returns the result of the latest Observe.
func (e *Estimator) Snapshot() Snapshot {
	return e.snap
}

// Rate returns the learned rate and whether one exists yet.
func (e *Estimator) Rate() (float64, bool) {
	return e.rate, e.learned
}
