package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel is one step below Debug. The classifiers log every rule
// evaluation at this level.
const TraceLevel = zapcore.DebugLevel - 1

// LevelFromString accepts zap's level names plus "trace", case-insensitively.
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(strings.TrimSpace(level), "trace") {
		return TraceLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return zapcore.InfoLevel, err
	}
	return lvl, nil
}
