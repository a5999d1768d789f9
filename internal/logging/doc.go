// Package logging provides structured logging for taskpri.
//
// The Logger wraps Zap with:
//   - a custom Trace level (-2, below Debug)
//   - stderr and OpenTelemetry outputs
//   - context field injection (trace_id, run.id, task.id, capture.id)
//   - redaction of credentials such as assistant API keys
//   - level-aware sampling (errors are never sampled)
//
// Usage:
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithTaskID(ctx, task.ID)
//	logger.Info(ctx, "task clarified", zap.String("status", "next_action"))
//
// Tests use NewTestLogger, which records entries in memory:
//
//	logger := logging.NewTestLogger()
//	// ...
//	logger.AssertLogged(t, zapcore.WarnLevel, "clarification failed")
package logging
