package usecase

import "time"

type LoadOutcome string

const (
	LoadHit   LoadOutcome = "hit"
	LoadMiss  LoadOutcome = "miss"
	LoadStale LoadOutcome = "stale"
)

// RunObserver receives run measurements. observability.Metrics is the production implementation.
type RunObserver interface {
	ObserveLoad(dataset string, outcome LoadOutcome, rows int)
	ObserveStage(stage string, elapsed time.Duration)
	ObserveRun(status string, discrepancies int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveLoad(string, LoadOutcome, int)  {}
func (nopObserver) ObserveStage(string, time.Duration)    {}
func (nopObserver) ObserveRun(string, int, time.Duration) {}

func NewNopObserver() RunObserver {
	return nopObserver{}
}
