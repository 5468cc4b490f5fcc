package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/medifleet/medifleet/app"
	"github.com/medifleet/medifleet/core/events"
	"github.com/medifleet/medifleet/core/movement"
	"github.com/medifleet/medifleet/infra/logger"
	"github.com/medifleet/medifleet/internal/eventbus"
	"github.com/medifleet/medifleet/simulator"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the coordinated multi-robot delivery demonstration",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("demo")

	// The demo needs an authority that drives assignments. Without an
	// external service we self-host the simulator and talk to it over
	// its own API.
	if cfg.Fleet.Mode == "memory" {
		simCfg := simulator.Config{Addr: "127.0.0.1:8000"}
		sim := simulator.New(simCfg, nil, logger.New("simulator"))
		go func() {
			if err := sim.Run(ctx); err != nil {
				log.Errorf("simulator: %v", err)
			}
		}()
		cfg.Fleet.Mode = "http"
		cfg.Fleet.BaseURL = "http://127.0.0.1:8000"
		time.Sleep(100 * time.Millisecond)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := svc.Run(runCtx); err != nil {
			log.Errorf("service: %v", err)
		}
	}()

	// Each created task gets the full auction presentation: wait for
	// the authority to open bidding, then run the scoring ramp.
	created, stopWatch := eventbus.Watch[events.TaskCreated](svc.Bus)
	defer stopWatch()
	go func() {
		for ev := range created {
			go func(id string) {
				task, err := svc.Poll.WatchTask(runCtx, id)
				if err != nil {
					log.Warnf("task watch %s: %v", id, err)
					return
				}
				robots, err := svc.Authority.Robots(runCtx)
				if err != nil {
					log.Warnf("roster read: %v", err)
					return
				}
				if _, err := svc.Auction.Run(runCtx, task, robots); err != nil {
					log.Warnf("auction for %s: %v", id, err)
				}
			}(ev.Task.ID)
		}
	}()

	if err := svc.Movement.RunDemo(ctx, movement.DefaultDemoTasks()); err != nil {
		return err
	}

	fmt.Println("Activity log:")
	for _, e := range svc.Activity.Snapshot() {
		fmt.Printf("  %s  %s\n", e.Time.Format(time.TimeOnly), e.Message)
	}
	return nil
}
