package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/medifleet/medifleet/app"
	"github.com/medifleet/medifleet/core/model"
)

var (
	taskDest     string
	taskPriority string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage delivery tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a delivery task",
	RunE:  createTask,
}

var taskLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List delivery tasks, newest first",
	RunE:  listTasks,
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskDest, "dest", "", "destination waypoint, e.g. ICU")
	taskCreateCmd.Flags().StringVar(&taskPriority, "priority", string(model.PriorityMedium), "low, medium, high or urgent")
	_ = taskCreateCmd.MarkFlagRequired("dest")
	taskCmd.AddCommand(taskCreateCmd, taskLsCmd)
	rootCmd.AddCommand(taskCmd)
}

func createTask(cmd *cobra.Command, args []string) error {
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

	task, err := svc.Authority.CreateTask(ctx, model.Location(taskDest), model.Priority(taskPriority))
	if err != nil {
		return err
	}
	fmt.Printf("created task %s: %s -> %s (%s)\n", task.ID, model.LocEntrance, task.Destination, task.Priority)
	return nil
}

func listTasks(cmd *cobra.Command, args []string) error {
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

	tasks, err := svc.Authority.Tasks(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDESTINATION\tPRIORITY\tSTATUS\tROBOT")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Destination, t.Priority, t.Status, t.RobotName)
	}
	return w.Flush()
}
