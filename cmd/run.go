package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"devbox_provision/pkg/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run [task...]",
	Short: "Run the named tasks in order, or every task when none is named.",
	Long: `Run executes the given tasks sequentially with their configured parameters and
stops at the first failure. Without arguments every task runs, in the order a
fresh box is provisioned:

  ` + strings.Join(workflow.TaskNames(), "\n  "),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := args
		if len(names) == 0 {
			names = workflow.TaskNames()
		}
		for _, name := range names {
			if _, ok := workflow.Lookup(name); !ok {
				return fmt.Errorf("unknown task %q, see 'list'", name)
			}
		}

		if slices.Contains(names, websiteTask) {
			if err := confirmAction(websitePrompt); err != nil {
				return err
			}
		}

		return withWorkflow(cmd, func(ctx context.Context, w *workflow.Workflow) error {
			return w.RunTasks(ctx, names...)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available tasks.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range workflow.Tasks() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", t.Name, t.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}
