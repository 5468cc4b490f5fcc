// Package app wires the coordination engine from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/medifleet/medifleet/config"
	"github.com/medifleet/medifleet/core/activity"
	"github.com/medifleet/medifleet/core/auction"
	"github.com/medifleet/medifleet/core/distance"
	"github.com/medifleet/medifleet/core/fleet"
	coremetrics "github.com/medifleet/medifleet/core/metrics"
	"github.com/medifleet/medifleet/core/movement"
	"github.com/medifleet/medifleet/core/poll"
	"github.com/medifleet/medifleet/infra/fleetapi"
	"github.com/medifleet/medifleet/infra/logger"
	"github.com/medifleet/medifleet/infra/memory"
	"github.com/medifleet/medifleet/infra/metrics"
	"github.com/medifleet/medifleet/infra/mqtt"
	"github.com/medifleet/medifleet/internal/eventbus"
)

// Service holds the wired coordination engine. Every collaborator is
// constructor-injected so two services never share hidden state.
type Service struct {
	Authority fleet.Authority
	Bus       eventbus.EventBus
	Activity  *activity.Log
	Estimator *distance.Estimator
	Auction   *auction.Coordinator
	Movement  *movement.Coordinator
	Poll      *poll.Reconciler

	cfg  *config.Config
	log  logger.Logger
	sink coremetrics.Sink
	pub  mqtt.Publisher
}

// New builds a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Pretty); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	log := logger.New("service")

	var auth fleet.Authority
	switch cfg.Fleet.Mode {
	case "http":
		auth = fleetapi.New(cfg.Fleet.BaseURL, time.Duration(cfg.Fleet.TimeoutMS)*time.Millisecond)
	default:
		store := memory.NewStore()
		store.SeedRobots(memory.DefaultRoster()...)
		auth = store
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	actOpts := []activity.Option{}
	if cfg.Activity.Capacity > 0 {
		actOpts = append(actOpts, activity.WithCapacity(cfg.Activity.Capacity))
	}
	for _, s := range sinks {
		if as, ok := s.(activity.Sink); ok {
			actOpts = append(actOpts, activity.WithSink(as))
		}
	}
	act := activity.NewLog(actOpts...)

	var pub mqtt.Publisher
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		pub = p
	}

	bus := eventbus.New()
	est := distance.NewEstimator(cfg.Fleet.Seed)

	return &Service{
		Authority: auth,
		Bus:       bus,
		Activity:  act,
		Estimator: est,
		Auction:   auction.NewCoordinator(cfg.Auction, est, bus, act, logger.New("auction")),
		Movement:  movement.NewCoordinator(cfg.Movement, auth, bus, act, logger.New("movement")),
		Poll:      poll.NewReconciler(cfg.Poll, auth, bus, logger.New("poll")),
		cfg:       cfg,
		log:       log,
		sink:      sink,
		pub:       pub,
	}, nil
}

// Run starts the background machinery and blocks until the context is
// cancelled. Coordination operations themselves are invoked by callers
// against the exposed coordinators.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.Bus, s.sink)
	if s.pub != nil {
		mqtt.StartEventBridge(ctx, s.Bus, s.pub, s.log)
	}
	go s.Poll.RunDashboardSync(ctx)
	go s.Poll.RunRosterSync(ctx)
	go s.recordGauges(ctx)
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			addr := ":" + s.cfg.Metrics.PrometheusPort
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("coordination service running (fleet mode %s)", s.cfg.Fleet.Mode)
	<-ctx.Done()
	return nil
}

// recordGauges pushes the roster size and in-flight transit count on
// the roster cadence.
func (s *Service) recordGauges(ctx context.Context) {
	fleetRec, hasFleet := s.sink.(coremetrics.FleetSizeRecorder)
	flightRec, hasFlight := s.sink.(coremetrics.InFlightRecorder)
	if !hasFleet && !hasFlight {
		return
	}
	ticker := time.NewTicker(time.Duration(s.cfg.Poll.RosterMS) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if hasFleet {
				_, robots := s.Poll.Snapshot()
				_ = fleetRec.RecordFleetSize(len(robots))
			}
			if hasFlight {
				_ = flightRec.RecordInFlight(len(s.Movement.ActiveMovements()))
			}
		}
	}
}

// Close releases broker connections and flushes sinks.
func (s *Service) Close() {
	if s.pub != nil {
		s.pub.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.Bus.Close()
}
