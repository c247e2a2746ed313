package events

import (
	"context"
	"log/slog"
	"time"
)

// Publisher is the service-facing emit interface.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Sink receives batches of events from the emitter.
type Sink interface {
	Deliver(ctx context.Context, batch []Event) error
}

const (
	emitterBatchSize  = 128
	emitterFlushEvery = 250 * time.Millisecond
)

// Emitter decouples event emission from delivery: Emit buffers and returns
// immediately, a background worker drains batches to every sink. Sink
// failures are logged and never surface to the request path.
type Emitter struct {
	buf    *RingBuffer
	sinks  []Sink
	logger *slog.Logger
	notify chan struct{}
}

// NewEmitter creates an emitter over the given sinks.
func NewEmitter(logger *slog.Logger, sinks ...Sink) *Emitter {
	return &Emitter{
		buf:    NewRingBuffer(0),
		sinks:  sinks,
		logger: logger,
		notify: make(chan struct{}, 1),
	}
}

// Emit validates and buffers an event. It never blocks on delivery.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	e.buf.Enqueue(event)
	select {
	case e.notify <- struct{}{}:
	default:
	}
	return nil
}

// Run drains the buffer until ctx is cancelled, then flushes what is left.
func (e *Emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(emitterFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			e.drain(flushCtx)
			cancel()
			return nil
		case <-e.notify:
			e.drain(ctx)
		case <-ticker.C:
			e.drain(ctx)
		}
	}
}

func (e *Emitter) drain(ctx context.Context) {
	for {
		batch := e.buf.DequeueBatch(emitterBatchSize)
		if len(batch) == 0 {
			return
		}
		for _, sink := range e.sinks {
			if err := sink.Deliver(ctx, batch); err != nil {
				e.logger.ErrorContext(ctx, "event sink delivery failed",
					"error", err,
					"batch_size", len(batch),
				)
			}
		}
	}
}

// Dropped reports how many events overflowed the buffer.
func (e *Emitter) Dropped() int64 {
	return e.buf.Dropped()
}
