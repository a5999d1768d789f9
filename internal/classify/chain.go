package classify

import (
	"context"
	"errors"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/albeorla/task-pri-lite-sub001/internal/classify"

// ErrNoProcessor is returned when no processor accepts an item. A chain
// built with NewChain always ends in DefaultProcessor, so this indicates a
// misconfigured chain.
var ErrNoProcessor = errors.New("no processor accepted the capture item")

// Chain runs processors in order; the first match wins.
type Chain struct {
	processors []Processor
	logger     *logging.Logger
}

// NewChain builds a chain from processors and appends DefaultProcessor.
func NewChain(logger *logging.Logger, processors ...Processor) *Chain {
	if logger == nil {
		logger = logging.Nop()
	}
	ps := make([]Processor, 0, len(processors)+1)
	ps = append(ps, processors...)
	ps = append(ps, DefaultProcessor{})
	return &Chain{processors: ps, logger: logger}
}

// NewDefaultChain returns task, event, reference and default processors.
// now resolves relative dates for items without a timestamp; nil means time.Now.
func NewDefaultChain(logger *logging.Logger, now func() time.Time) *Chain {
	x := Extractor{Now: now}
	return NewChain(logger, TaskProcessor{X: x}, EventProcessor{X: x}, ReferenceProcessor{})
}

// Processors returns the processor names in evaluation order.
func (c *Chain) Processors() []string {
	names := make([]string, len(c.processors))
	for i, p := range c.processors {
		names[i] = p.Name()
	}
	return names
}

// Process classifies item with the first processor that accepts it.
func (c *Chain) Process(ctx context.Context, item capture.Item) (capture.Processed, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "classify.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("capture.id", item.ID()),
		attribute.String("capture.source", string(item.Source())),
	)
	ctx = logging.WithCaptureID(ctx, item.ID())

	for _, p := range c.processors {
		if !p.CanProcess(item) {
			c.logger.Trace(ctx, "processor declined", zap.String("processor", p.Name()))
			continue
		}
		result := p.Process(item)
		span.SetAttributes(
			attribute.String("classify.processor", p.Name()),
			attribute.String("classify.nature", string(result.Nature)),
			attribute.String("classify.destination", string(result.Destination)),
		)
		c.logger.Debug(ctx, "capture classified",
			zap.String("processor", p.Name()),
			zap.String("nature", string(result.Nature)),
			zap.String("destination", string(result.Destination)),
		)
		return result, nil
	}

	span.RecordError(ErrNoProcessor)
	span.SetStatus(codes.Error, ErrNoProcessor.Error())
	c.logger.Error(ctx, "capture not classified")
	return capture.Processed{}, ErrNoProcessor
}
