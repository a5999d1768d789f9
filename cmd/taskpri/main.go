// Taskpri captures, clarifies and prioritizes tasks the GTD way.
//
// Usage:
//
//	# Capture free text and route it
//	taskpri capture "need to renew passport"
//
//	# Clarify the inbox and assign Eisenhower quadrants
//	taskpri process
//
//	# Watch a drop folder for .txt and .toml captures
//	taskpri watch ~/inbox
//
// Configuration is read from ~/.config/taskpri/config.yaml and TASKPRI_*
// environment variables. See internal/config for details.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:   "taskpri",
		Short: "Capture, clarify and prioritize tasks",
		Long: `taskpri runs captured notes through a Getting-Things-Done pipeline.

Captures are classified (task, event, reference, project idea, unclear),
routed to a destination, and tasks are clarified into next actions or
projects and placed in an Eisenhower quadrant.`,
		Version:       fmt.Sprintf("%s (%s)", version, gitCommit),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/taskpri/config.yaml)")

	root.AddCommand(
		newCaptureCmd(&opts),
		newAddCmd(&opts),
		newProcessCmd(&opts),
		newListCmd(&opts),
		newImportCmd(&opts),
		newWatchCmd(&opts),
		newAuthCmd(&opts),
	)
	return root
}

type globalOptions struct {
	configPath string
}
