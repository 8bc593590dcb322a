// Package telemetry records operational metrics. The live tracker
// exposes Prometheus collectors; the noop tracker drops everything and
// keeps mock mode and tests quiet.
package telemetry

import "time"

// Tracker receives the domain signals the service layer reports.
type Tracker interface {
	// EntryOp records the outcome of a journal operation such as
	// "create" or "search".
	EntryOp(op string, err error)

	// ClassifierCall records one sentiment-scoring round trip.
	ClassifierCall(d time.Duration, err error)

	// EventPublished records a journal event fan-out attempt.
	EventPublished(ok bool)
}

// Noop discards all signals.
type Noop struct{}

var _ Tracker = Noop{}

func (Noop) EntryOp(string, error)                {}
func (Noop) ClassifierCall(time.Duration, error)  {}
func (Noop) EventPublished(bool)                  {}
