package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/medifleet/medifleet/app"
)

var robotCmd = &cobra.Command{
	Use:   "robot",
	Short: "Inspect the robot fleet",
}

var robotLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the fleet roster",
	RunE:  listRobots,
}

func init() {
	robotCmd.AddCommand(robotLsCmd)
	rootCmd.AddCommand(robotCmd)
}

func listRobots(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	robots, err := svc.Authority.Robots(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tLOCATION\tBATTERY\tTODAY\tTOTAL")
	for _, r := range robots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%d\t%d\n",
			r.ID, r.Name, r.Status, r.Location, r.Battery, r.TasksCompletedToday, r.TotalTasks)
	}
	return w.Flush()
}
