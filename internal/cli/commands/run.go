package commands

import (
	"fmt"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	DatasetID string
	Rules     []string
	Watch     bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run quality rules against a dataset",
		Example: `  # Queue two rules against a dataset
  hygiene run --dataset ds-1 --rules null-check,email-format

  # Queue and follow until it finishes
  hygiene run --dataset ds-1 --rules null-check --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.DatasetID, "dataset", "d", "", "Dataset to check (required)")
	cmd.Flags().StringSliceVarP(&opts.Rules, "rules", "r", nil, "Rule IDs to run (required)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Follow the execution until it finishes")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	client, _, err := signedInClient(cmd)
	if err != nil {
		return err
	}

	exec, err := client.CreateExecution(cmd.Context(), api.CreateExecutionRequest{
		DatasetID: opts.DatasetID,
		RuleIDs:   opts.Rules,
	})
	if err != nil {
		return friendlyAPIError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Execution %s queued: %d rules against %s\n",
		exec.ID, exec.RulesTotal, exec.DatasetName)

	if opts.Watch {
		return watchExecution(cmd, client, exec.ID)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Follow it with 'hygiene executions watch %s'\n", exec.ID)
	return nil
}
