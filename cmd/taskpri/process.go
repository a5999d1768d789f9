package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/orchestrator"
	"github.com/albeorla/task-pri-lite-sub001/internal/tasks"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

func newProcessCmd(opts *globalOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Clarify the inbox and prioritize tasks",
		Long: `Run the workflow: every Inbox task is clarified into a next action,
a project, reference or someday/maybe; then every open task is placed in an
Eisenhower quadrant. A failure on one task never stops the run.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			if !quiet {
				a.workflow.OnProgress(func(p orchestrator.PhaseProgress) {
					if p.Status == orchestrator.StatusStarted {
						cmd.Println(dimStyle.Render(p.Message))
					}
				})
			}

			report, runErr := a.workflow.Run(ctx)
			if report != nil {
				printReport(cmd, report)
			}
			a.writeMetrics(ctx)
			// Partial progress is kept even when the run was interrupted.
			if err := a.save(ctx); err != nil {
				return err
			}
			return runErr
		}),
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide phase progress")
	return cmd
}

func printReport(cmd *cobra.Command, r *orchestrator.Report) {
	cmd.Println(headerStyle.Render("Workflow run " + r.RunID))
	cmd.Printf("clarified %d, prioritized %d, skipped %d, failed %d in %s\n",
		r.Clarified, r.Prioritized, r.Skipped, len(r.Failures), r.Duration.Round(time.Millisecond))
	for _, f := range r.Failures {
		cmd.Println(warningStyle.Render(fmt.Sprintf("  %s %s: %v", f.Phase, f.TaskID, f.Err)))
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var status, quadrant string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks with their status, quadrant, context and due date.
Done tasks are hidden unless --all or --status done is given.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if status != "" && !tasks.Status(status).Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			if quadrant != "" && !validQuadrant(tasks.Quadrant(quadrant)) {
				return fmt.Errorf("unknown quadrant %q", quadrant)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tQUADRANT\tCONTEXT\tDUE\tPROJECT\tTASK")
			for _, t := range a.workflow.Tasks().List() {
				if !matchesFilter(t, status, quadrant, all) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.Status, quadrantLabel(t), orDash(t.Context), dueLabel(t), projectLabel(t), t.Description)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "only tasks in this status")
	cmd.Flags().StringVar(&quadrant, "quadrant", "", "only tasks in this quadrant (do, decide, delegate, delete)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include done tasks")
	return cmd
}

func matchesFilter(t *tasks.Task, status, quadrant string, all bool) bool {
	if status != "" && string(t.Status) != status {
		return false
	}
	if status == "" && !all && t.Status == tasks.StatusDone {
		return false
	}
	if quadrant != "" && (t.Quadrant == nil || !strings.EqualFold(string(*t.Quadrant), quadrant)) {
		return false
	}
	return true
}

func validQuadrant(q tasks.Quadrant) bool {
	for _, v := range []tasks.Quadrant{tasks.QuadrantDo, tasks.QuadrantDecide, tasks.QuadrantDelegate, tasks.QuadrantDelete} {
		if strings.EqualFold(string(v), string(q)) {
			return true
		}
	}
	return false
}

func quadrantLabel(t *tasks.Task) string {
	if t.Quadrant == nil {
		return "-"
	}
	return string(*t.Quadrant)
}

func dueLabel(t *tasks.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.Local().Format("2006-01-02 15:04")
}

func projectLabel(t *tasks.Task) string {
	if t.Project == nil {
		return "-"
	}
	return t.Project.Name
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
