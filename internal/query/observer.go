package query

import "time"

// Operation names reported to an Observer.
const (
	OpSimilarity = "similarity"
	OpNeighbors  = "neighbors"
)

// Observer receives the outcome of every query.
type Observer interface {
	ObserveQuery(op, code string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveQuery(string, string, time.Duration) {}

// NoopObserver discards observations.
var NoopObserver Observer = noopObserver{}
