package cmd

import (
	"github.com/spf13/cobra"

	"github.com/medifleet/medifleet/infra/logger"
	"github.com/medifleet/medifleet/simulator"
)

var simAddr string

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the authority simulator",
	Long: "Serves the fleet authority REST API over an in-memory store with the\n" +
		"default three-robot roster, including the authority's own bidding and\n" +
		"assignment policy.",
	RunE: runSim,
}

func init() {
	simCmd.Flags().StringVar(&simAddr, "addr", "", "listen address (default :8000)")
	rootCmd.AddCommand(simCmd)
}

func runSim(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	sim := simulator.New(simulator.Config{Addr: simAddr}, nil, logger.New("simulator"))
	return sim.Run(ctx)
}
