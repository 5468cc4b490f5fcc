package metrics

import (
	"errors"

	coremetrics "github.com/medifleet/medifleet/core/metrics"
)

// MultiSink fans events out to several sinks, joining their errors.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines sinks. Zero sinks behaves like a NopSink.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordAuction(ev coremetrics.AuctionEvent) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordAuction(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordTask(ev coremetrics.TaskEvent) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordTask(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordMovement(ev coremetrics.MovementEvent) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordMovement(ev))
	}
	return errors.Join(errs...)
}

// RecordFleetSize forwards to the sinks that track roster size.
func (m *MultiSink) RecordFleetSize(size int) error {
	var errs []error
	for _, s := range m.sinks {
		if r, ok := s.(coremetrics.FleetSizeRecorder); ok {
			errs = append(errs, r.RecordFleetSize(size))
		}
	}
	return errors.Join(errs...)
}

// RecordInFlight forwards to the sinks that track concurrent transits.
func (m *MultiSink) RecordInFlight(count int) error {
	var errs []error
	for _, s := range m.sinks {
		if r, ok := s.(coremetrics.InFlightRecorder); ok {
			errs = append(errs, r.RecordInFlight(count))
		}
	}
	return errors.Join(errs...)
}
