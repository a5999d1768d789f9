// Package orchestrator runs the GTD workflow over the task stores.
//
// # Overview
//
// A Workflow owns one TaskStore and one ProjectStore for the lifetime of a
// session. Captures enter the stores through Materialize, imports through
// Absorb, and Run advances everything in two phases:
//
//	Clarify (Inbox tasks) → Prioritize (all prioritizable tasks)
//
// # Fault isolation
//
// A failure while clarifying or prioritizing one task is logged, counted in
// taskpri_task_failures_total{phase} and listed in Report.Failures. The run
// continues with the next task. Only context cancellation ends a run early.
//
// # Metrics
//
// Each Workflow registers its collectors in a private prometheus registry,
// so several workflows (tests, for instance) never collide. WriteMetrics
// dumps the registry in the node-exporter textfile format.
//
// # Usage Example
//
//	wf := orchestrator.New(taskStore, projectStore, orchestrator.Options{
//	    Assistant: collab,
//	    Logger:    logger,
//	})
//	wf.OnProgress(func(p orchestrator.PhaseProgress) { ... })
//	report, err := wf.Run(ctx)
package orchestrator
