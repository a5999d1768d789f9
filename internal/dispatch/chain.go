// Package dispatch routes processed captures to their destination.
//
// A Chain holds one Handler per destination and invokes the first whose
// CanHandle accepts the item. Unlike classification there is no catch-all:
// an item whose destination has no handler is reported as ErrNoHandler and
// nothing is touched.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/albeorla/task-pri-lite-sub001/internal/dispatch"

// ErrNoHandler is returned when no handler accepts an item's destination.
var ErrNoHandler = errors.New("no handler for destination")

// Handler performs the side effect for one destination.
type Handler interface {
	Destination() capture.Destination
	// CanHandle is true iff p's suggested destination is Destination().
	CanHandle(p capture.Processed) bool
	Handle(ctx context.Context, p capture.Processed) error
}

// Chain dispatches to the first accepting handler.
type Chain struct {
	handlers []Handler
	logger   *logging.Logger
}

// NewChain builds a chain from handlers in order.
func NewChain(logger *logging.Logger, handlers ...Handler) *Chain {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Chain{handlers: handlers, logger: logger.Named("dispatch")}
}

// Destinations lists handled destinations in evaluation order.
func (c *Chain) Destinations() []capture.Destination {
	out := make([]capture.Destination, len(c.handlers))
	for i, h := range c.handlers {
		out[i] = h.Destination()
	}
	return out
}

// Dispatch invokes exactly one handler for p, or returns ErrNoHandler
// without invoking any.
func (c *Chain) Dispatch(ctx context.Context, p capture.Processed) error {
	ctx = logging.WithCaptureID(ctx, p.Original.ID())
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "dispatch.handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("capture.id", p.Original.ID()),
		attribute.String("dispatch.destination", string(p.Destination)),
	)

	for _, h := range c.handlers {
		if !h.CanHandle(p) {
			continue
		}
		if err := h.Handle(ctx, p); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Error(ctx, "dispatch failed",
				zap.String("destination", string(p.Destination)),
				zap.Error(err),
			)
			return fmt.Errorf("%s: %w", h.Destination(), err)
		}
		c.logger.Info(ctx, "capture dispatched", zap.String("destination", string(p.Destination)))
		return nil
	}

	err := fmt.Errorf("%w: %q", ErrNoHandler, p.Destination)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Warn(ctx, "no handler for capture", zap.String("destination", string(p.Destination)))
	return err
}

// destinationMatcher provides CanHandle for handlers bound to one destination.
type destinationMatcher capture.Destination

func (d destinationMatcher) Destination() capture.Destination { return capture.Destination(d) }

func (d destinationMatcher) CanHandle(p capture.Processed) bool {
	return p.Destination == capture.Destination(d)
}
