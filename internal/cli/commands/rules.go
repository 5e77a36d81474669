package commands

import (
	"fmt"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// RulesListOptions holds options for rules list.
type RulesListOptions struct {
	Query     string
	Dimension string
	Severity  string
	Size      int
}

// NewRulesCommand creates the rules command group.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the organization's quality rules",
	}
	cmd.AddCommand(newRulesListCommand())
	return cmd
}

func newRulesListCommand() *cobra.Command {
	opts := &RulesListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quality rules",
		Example: `  # All rules
  hygiene rules list

  # Completeness rules only
  hygiene rules list --dimension completeness

  # Critical rules only
  hygiene rules list --severity critical`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRulesList(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Filter by name")
	cmd.Flags().StringVar(&opts.Dimension, "dimension", "", "Filter by quality dimension")
	cmd.Flags().StringVar(&opts.Severity, "severity", "", "Filter by severity")
	cmd.Flags().IntVar(&opts.Size, "size", 50, "Page size")

	_ = cmd.RegisterFlagCompletionFunc("dimension", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return api.Dimensions, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return api.Severities, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRulesList(cmd *cobra.Command, opts *RulesListOptions) error {
	client, _, err := signedInClient(cmd)
	if err != nil {
		return err
	}

	page, err := client.Rules(cmd.Context(), api.RuleListOptions{
		Query:     opts.Query,
		Dimension: opts.Dimension,
		Severity:  opts.Severity,
		Size:      opts.Size,
	})
	if err != nil {
		return friendlyAPIError(err)
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No rules found")
		return nil
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Name", "Dimension", "Severity", "State"})
	for _, r := range page.Items {
		t.AppendRow(table.Row{
			r.ID, r.Name, r.Dimension,
			severityCell(r.Severity), activeCell(r.IsActive),
		})
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d rules)\n", len(page.Items), page.Total)
	return nil
}
