package main

import (
	"fmt"
	"os"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/importer"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from external exports",
		Long: `Import tasks from a Todoist data export or Google Calendar events JSON.

Imported ids are prefixed with their source, so importing the same export
again updates tasks instead of duplicating them.`,
	}
	cmd.AddCommand(newImportTodoistCmd(opts), newImportCalendarCmd(opts))
	return cmd
}

func newImportTodoistCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "todoist <export.json>",
		Short: "Import a Todoist JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening export: %w", err)
			}
			defer f.Close()

			res, err := importer.ParseTodoist(f, importer.TodoistOptions{Now: time.Now()})
			if err != nil {
				return err
			}
			return absorb(cmd, a, res)
		}),
	}
}

func newImportCalendarCmd(opts *globalOptions) *cobra.Command {
	var includePast bool

	cmd := &cobra.Command{
		Use:   "calendar <events.json>",
		Short: "Import Google Calendar events as inbox tasks",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening export: %w", err)
			}
			defer f.Close()

			res, err := importer.ParseCalendar(f, importer.CalendarOptions{Now: time.Now(), IncludePast: includePast})
			if err != nil {
				return err
			}
			return absorb(cmd, a, res)
		}),
	}
	cmd.Flags().BoolVar(&includePast, "include-past", false, "also import events that already ended")
	return cmd
}

func absorb(cmd *cobra.Command, a *app, res *importer.Result) error {
	rep, err := a.workflow.Absorb(cmd.Context(), res)
	if err != nil {
		return err
	}
	cmd.Printf("imported %d tasks and %d projects (%d next actions set)\n", rep.Tasks, rep.Projects, rep.NextActions)
	return a.save(cmd.Context())
}
