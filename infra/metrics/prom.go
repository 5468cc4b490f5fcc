package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/medifleet/medifleet/core/metrics"
)

// PromSink records coordination events in Prometheus metrics.
type PromSink struct {
	auctions   *prometheus.CounterVec
	tasks      *prometheus.CounterVec
	movements  *prometheus.CounterVec
	transit    *prometheus.HistogramVec
	completion *prometheus.HistogramVec
	fleet      prometheus.Gauge
	inFlight   prometheus.Gauge
}

// NewPromSink registers coordination metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	auctions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_events_total",
		Help: "Total number of auction instances by destination and outcome",
	}, []string{"destination", "outcome"})
	tasks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_events_total",
		Help: "Task lifecycle observations by status and priority",
	}, []string{"status", "priority"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "movement_events_total",
		Help: "Settled robot transits by robot and success",
	}, []string{"robot", "success"})
	transit := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "movement_transit_seconds",
		Help:    "Simulated transit duration from departure to commit",
		Buckets: prometheus.DefBuckets,
	}, []string{"robot"})
	completion := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "task_completion_seconds",
		Help:    "Task latency from creation through auction to completed delivery",
		Buckets: prometheus.DefBuckets,
	}, []string{"robot"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_robots_total",
		Help: "Number of robots in the last synced roster",
	})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_robots_in_flight",
		Help: "Number of robots currently on a simulated transit",
	})

	s := &PromSink{auctions: auctions, tasks: tasks, movements: movements, transit: transit, completion: completion, fleet: fleet, inFlight: inFlight}
	for _, c := range []prometheus.Collector{auctions, tasks, movements, transit, completion, fleet, inFlight} {
		if err := register(reg, c, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, s *PromSink) error {
	err := reg.Register(c)
	if err == nil {
		return nil
	}
	are, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		return err
	}
	switch c {
	case s.auctions:
		s.auctions = are.ExistingCollector.(*prometheus.CounterVec)
	case s.tasks:
		s.tasks = are.ExistingCollector.(*prometheus.CounterVec)
	case s.movements:
		s.movements = are.ExistingCollector.(*prometheus.CounterVec)
	case s.transit:
		s.transit = are.ExistingCollector.(*prometheus.HistogramVec)
	case s.completion:
		s.completion = are.ExistingCollector.(*prometheus.HistogramVec)
	case s.fleet:
		s.fleet = are.ExistingCollector.(prometheus.Gauge)
	case s.inFlight:
		s.inFlight = are.ExistingCollector.(prometheus.Gauge)
	}
	return nil
}

// RecordAuction increments the auction counter.
func (s *PromSink) RecordAuction(ev coremetrics.AuctionEvent) error {
	outcome := "won"
	if ev.Failed {
		outcome = "failed"
	}
	s.auctions.WithLabelValues(string(ev.Destination), outcome).Inc()
	return nil
}

// RecordTask increments the task lifecycle counter.
func (s *PromSink) RecordTask(ev coremetrics.TaskEvent) error {
	s.tasks.WithLabelValues(string(ev.Status), string(ev.Priority)).Inc()
	return nil
}

// RecordMovement increments the movement counter and observes the
// transit and end-to-end completion durations.
func (s *PromSink) RecordMovement(ev coremetrics.MovementEvent) error {
	s.movements.WithLabelValues(ev.Robot, strconv.FormatBool(ev.Success)).Inc()
	if ev.Success {
		s.transit.WithLabelValues(ev.Robot).Observe(ev.Duration.Seconds())
		if ev.Latency > 0 {
			s.completion.WithLabelValues(ev.Robot).Observe(ev.Latency.Seconds())
		}
	}
	return nil
}

// RecordFleetSize sets the roster gauge.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}

// RecordInFlight sets the in-flight transit gauge.
func (s *PromSink) RecordInFlight(count int) error {
	s.inFlight.Set(float64(count))
	return nil
}
