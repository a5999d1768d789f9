package main

import (
	"github.com/albeorla/task-pri-lite-sub001/internal/inbox"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var process bool

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Capture files dropped into a folder",
		Long: `Watch a drop folder. Each .txt file becomes a free-text capture (a
name like "email-invoice.txt" sets the source to email); each .toml file
holds a manual entry with the same fields as 'taskpri add'. Captured files
move to the processed/ subfolder. Runs until interrupted.

Examples:
  taskpri watch ~/inbox
  taskpri watch --process ~/inbox`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			w, err := inbox.NewWatcher(args[0], a.logger)
			if err != nil {
				return err
			}
			defer w.Stop()
			if err := w.Start(ctx); err != nil {
				return err
			}
			cmd.Printf("watching %s (ctrl+c to stop)\n", args[0])

			for {
				select {
				case <-ctx.Done():
					return nil
				case c := <-w.Captures():
					cctx := logging.WithCaptureID(ctx, c.Item.ID())
					processed, err := a.handleCapture(cctx, c.Item)
					if err != nil {
						a.logger.Error(cctx, "capture failed", zap.String("path", c.Path), zap.Error(err))
						continue
					}
					cmd.Printf("%s → %s\n", processed.Title(), processed.Destination)
					if process {
						if report, err := a.workflow.Run(cctx); err == nil {
							printReport(cmd, report)
						}
						a.writeMetrics(cctx)
					}
					if err := a.save(cctx); err != nil {
						a.logger.Error(cctx, "save failed", zap.Error(err))
					}
				}
			}
		}),
	}
	cmd.Flags().BoolVar(&process, "process", false, "run the workflow after every capture")
	return cmd
}
