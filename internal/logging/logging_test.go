package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/albeorla/task-pri-lite-sub001/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_IDs(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithTaskID(ctx, "task-9")
	ctx = WithCaptureID(ctx, "cap-3")

	keys := map[string]string{}
	for _, f := range ContextFields(ctx) {
		keys[f.Key] = f.String
	}
	assert.Equal(t, "run-1", keys["run.id"])
	assert.Equal(t, "task-9", keys["task.id"])
	assert.Equal(t, "cap-3", keys["capture.id"])
}

func TestContextFields_Trace(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var hasTrace, hasSpan bool
	for _, f := range ContextFields(ctx) {
		hasTrace = hasTrace || f.Key == "trace_id"
		hasSpan = hasSpan || f.Key == "span_id"
	}
	assert.True(t, hasTrace)
	assert.True(t, hasSpan)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()), "nop logger when absent")

	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger.Logger)
	FromContext(ctx).Info(ctx, "stored logger used")
	logger.AssertLogged(t, zapcore.InfoLevel, "stored logger used")
}

func TestTestLogger_Assertions(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithTaskID(context.Background(), "t1")

	logger.Warn(ctx, "clarification failed", zap.String("reason", "timeout"))
	logger.Trace(ctx, "rule evaluated")

	logger.AssertLogged(t, zapcore.WarnLevel, "clarification failed")
	logger.AssertLogged(t, TraceLevel, "rule evaluated")
	logger.AssertField(t, "clarification failed", "reason", "timeout")
	logger.AssertField(t, "clarification failed", "task.id", "t1")
	logger.AssertNotLogged(t, zapcore.ErrorLevel, "clarification failed")

	logger.Reset()
	assert.Empty(t, logger.All())
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, lvl)

	lvl, err = LevelFromString("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = LevelFromString("loud")
	assert.Error(t, err)
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	_, err = FromSettings(config.LoggingConfig{Level: "debug", Format: "xml"})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Output.Console = false
	assert.ErrorContains(t, cfg.Validate(), "at least one output")

	cfg = NewDefaultConfig()
	cfg.Redaction.Patterns = []string{"("}
	assert.ErrorContains(t, cfg.Validate(), "invalid redaction pattern")
}

func TestNewDualCore_NoOutputs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Console = false
	cfg.Output.OTEL = true

	_, err := newDualCore(cfg, nil)
	assert.ErrorContains(t, err, "at least one output")
}

func TestRedactingEncoder(t *testing.T) {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	enc, err := NewRedactingEncoder(base, NewDefaultConfig().Redaction)
	require.NoError(t, err)

	var buf bytes.Buffer
	core := zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.DebugLevel)
	logger := zap.New(core)

	logger.Info("calling assistant",
		zap.String("api_key", "sk-abcdefghijklmnopqrstu"),
		zap.String("header", "Bearer abc.def"),
		zap.String("model", "gpt-4o-mini"),
		Secret("token", config.Secret("xyz")),
	)

	out := buf.String()
	assert.NotContains(t, out, "sk-abcdefghijklmnopqrstu")
	assert.NotContains(t, out, "abc.def")
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, `"api_key":"[REDACTED]"`)
	assert.Contains(t, out, `"header":"[REDACTED:pattern]"`)
	assert.Contains(t, out, `"token":"[REDACTED]"`)
}

func TestRedactingEncoder_BoundFieldsMessageAndErrors(t *testing.T) {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	enc, err := NewRedactingEncoder(base, NewDefaultConfig().Redaction)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.DebugLevel)).
		With(zap.String("password", "hunter2"), zap.String("provider", "openai"))

	logger.Warn("retrying with Bearer tok.123",
		zap.Error(errors.New("401 for api_key=sk-zyxwvutsrqponmlkjih")),
		zap.ByteString("raw", []byte("Bearer raw.456")),
	)

	out := buf.String()
	for _, leaked := range []string{"hunter2", "tok.123", "sk-zyxwvutsrqponmlkjih", "raw.456"} {
		assert.NotContains(t, out, leaked)
	}
	assert.Contains(t, out, `"password":"[REDACTED]"`)
	assert.Contains(t, out, `"provider":"openai"`)
	assert.Contains(t, out, "retrying with [REDACTED:pattern]")
	assert.Contains(t, out, `"error":"401 for [REDACTED:pattern]"`)
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	enc, err := NewRedactingEncoder(base, RedactionConfig{})
	require.NoError(t, err)

	var buf bytes.Buffer
	zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.DebugLevel)).
		Info("plain", zap.String("api_key", "visible"))
	assert.Contains(t, buf.String(), `"api_key":"visible"`)
}

func TestSampledCore_ErrorsNeverSampled(t *testing.T) {
	var buf bytes.Buffer
	base := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zapcore.DebugLevel)

	cfg := NewDefaultConfig().Sampling
	cfg.Initial = 1
	cfg.Thereafter = 0
	logger := zap.New(newSampledCore(base, cfg))

	for i := 0; i < 5; i++ {
		logger.Info("repeated info")
		logger.Error("repeated error")
	}

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("repeated info")))
	assert.Equal(t, 5, bytes.Count(buf.Bytes(), []byte("repeated error")))
}
