package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const watchPollInterval = 2 * time.Second

// ExecutionsListOptions holds options for executions list.
type ExecutionsListOptions struct {
	DatasetID string
	Status    string
	Size      int
}

// NewExecutionsCommand creates the executions command group.
func NewExecutionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "executions",
		Short: "Inspect and follow rule executions",
	}
	cmd.AddCommand(newExecutionsListCommand())
	cmd.AddCommand(newExecutionsWatchCommand())
	return cmd
}

func newExecutionsListCommand() *cobra.Command {
	opts := &ExecutionsListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List executions, newest first",
		Example: `  # Recent executions
  hygiene executions list

  # Executions for one dataset
  hygiene executions list --dataset ds-1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExecutionsList(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.DatasetID, "dataset", "d", "", "Filter by dataset ID")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&opts.Size, "size", 50, "Page size")

	_ = cmd.RegisterFlagCompletionFunc("status", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return api.ExecutionStatuses, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExecutionsList(cmd *cobra.Command, opts *ExecutionsListOptions) error {
	client, _, err := signedInClient(cmd)
	if err != nil {
		return err
	}

	page, err := client.Executions(cmd.Context(), api.ExecutionListOptions{
		DatasetID: opts.DatasetID,
		Status:    opts.Status,
		Size:      opts.Size,
	})
	if err != nil {
		return friendlyAPIError(err)
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No executions found")
		return nil
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"ID", "Dataset", "Status", "Rules", "Issues", "Started", "Finished"})
	for _, e := range page.Items {
		t.AppendRow(table.Row{
			e.ID, e.DatasetName, statusCell(e.Status),
			e.RulesTotal, e.IssuesFound,
			formatTimePtr(e.StartedAt), formatTimePtr(e.FinishedAt),
		})
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d executions)\n", len(page.Items), page.Total)
	return nil
}

func newExecutionsWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <execution-id>",
		Short: "Follow an execution until it finishes",
		Args:  cobra.ExactArgs(1),
		Example: `  # Poll until the execution reaches a terminal state
  hygiene executions watch ex-42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := signedInClient(cmd)
			if err != nil {
				return err
			}
			return watchExecution(cmd, client, args[0])
		},
	}
}

// watchExecution runs the polling TUI until the execution reaches a
// terminal state, the user quits, or the context is cancelled. A failed
// execution becomes a non-zero exit.
func watchExecution(cmd *cobra.Command, client *api.Client, id string) error {
	p := tea.NewProgram(newWatchModel(client, id),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithContext(cmd.Context()),
	)

	out, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	}

	final, ok := out.(watchModel)
	if !ok {
		return nil
	}
	if final.err != nil {
		return friendlyAPIError(final.err)
	}
	if final.exec.Status == api.ExecutionFailed {
		return fmt.Errorf("execution %s failed with %d issues", final.exec.ID, final.exec.IssuesFound)
	}
	return nil
}

type execMsg api.Execution

type execErrMsg struct{ err error }

// watchModel polls one execution and renders its progress.
type watchModel struct {
	client  *api.Client
	id      string
	spinner spinner.Model
	exec    api.Execution
	err     error
	done    bool
}

func newWatchModel(client *api.Client, id string) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = infoStyle
	return watchModel{client: client, id: id, spinner: sp}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchExecution(m.client, m.id))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case execMsg:
		m.exec = api.Execution(msg)
		if api.ExecutionTerminal(m.exec.Status) {
			m.done = true
			return m, tea.Quit
		}
		return m, pollExecution(m.client, m.id)

	case execErrMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	if m.err != nil {
		return render(errorStyle, "✗") + " " + m.err.Error() + "\n"
	}
	if m.exec.ID == "" {
		return m.spinner.View() + " Fetching execution...\n"
	}

	marker := m.spinner.View()
	if m.done {
		marker = statusMark(m.exec.Status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s\n", marker, render(boldStyle, m.exec.DatasetName), statusCell(m.exec.Status))
	fmt.Fprintf(&b, "  rules: %d  issues: %d\n", m.exec.RulesTotal, m.exec.IssuesFound)
	if d, ok := executionDuration(m.exec); ok {
		fmt.Fprintf(&b, "  elapsed: %s\n", d.Round(time.Second))
	}
	if !m.done {
		b.WriteString(render(mutedStyle, "  press q to stop watching\n"))
	}
	return b.String()
}

// fetchExecution loads the execution state once, immediately.
func fetchExecution(client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		return loadExecution(client, id)
	}
}

// pollExecution schedules the next load after the poll interval.
func pollExecution(client *api.Client, id string) tea.Cmd {
	return tea.Tick(watchPollInterval, func(time.Time) tea.Msg {
		return loadExecution(client, id)
	})
}

func loadExecution(client *api.Client, id string) tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exec, err := client.Execution(ctx, id)
	if err != nil {
		return execErrMsg{err}
	}
	return execMsg(exec)
}

func executionDuration(e api.Execution) (time.Duration, bool) {
	if e.StartedAt == nil {
		return 0, false
	}
	if e.FinishedAt != nil {
		return e.FinishedAt.Sub(*e.StartedAt), true
	}
	return time.Since(*e.StartedAt), true
}
