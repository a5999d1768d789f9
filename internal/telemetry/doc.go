// Package telemetry wires OpenTelemetry tracing and metrics for taskpri.
//
// Telemetry is off by default. When enabled, spans and metrics are exported
// over OTLP (gRPC or HTTP) to a collector. Failures to build exporters leave
// the instance degraded rather than failing the command.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
// Tests use NewTestTelemetry, which records spans in memory.
package telemetry
