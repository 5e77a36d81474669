package commands

import (
	"fmt"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// DatasetsListOptions holds options for datasets list.
type DatasetsListOptions struct {
	Query string
	Size  int
}

// NewDatasetsCommand creates the datasets command group.
func NewDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Inspect the organization's datasets",
	}
	cmd.AddCommand(newDatasetsListCommand())
	return cmd
}

func newDatasetsListCommand() *cobra.Command {
	opts := &DatasetsListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List datasets",
		Example: `  # All datasets
  hygiene datasets list

  # Search by name
  hygiene datasets list -q orders`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDatasetsList(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Filter by name")
	cmd.Flags().IntVar(&opts.Size, "size", 50, "Page size")

	return cmd
}

func runDatasetsList(cmd *cobra.Command, opts *DatasetsListOptions) error {
	client, _, err := signedInClient(cmd)
	if err != nil {
		return err
	}

	page, err := client.Datasets(cmd.Context(), api.DatasetListOptions{
		Query: opts.Query,
		Size:  opts.Size,
	})
	if err != nil {
		return friendlyAPIError(err)
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No datasets found")
		return nil
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Name", "Rows", "Columns", "Status", "Uploaded"})
	for _, d := range page.Items {
		t.AppendRow(table.Row{
			d.ID, d.Name, d.RowCount, d.ColumnCount,
			statusCell(d.Status), formatTime(d.CreatedAt),
		})
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d datasets)\n", len(page.Items), page.Total)
	return nil
}
