package worker

import (
	"context"
	"log/slog"
	"time"

	"qa-orchestrator/internal/domain"
)

const deliveryTimeout = 5 * time.Second

// JournalWorker decouples journal delivery from request handling: events are
// queued on a bounded channel and drained by a background goroutine. When
// the buffer is full the event is dropped with a warning; delivery is
// at-most-once.
type JournalWorker struct {
	sink     domain.JournalSink
	events   chan domain.JournalEvent
	logger   *slog.Logger
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewJournalWorker creates a worker forwarding to the given sink with the
// given buffer size.
func NewJournalWorker(sink domain.JournalSink, bufferSize int, logger *slog.Logger) *JournalWorker {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &JournalWorker{
		sink:     sink,
		events:   make(chan domain.JournalEvent, bufferSize),
		logger:   logger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (w *JournalWorker) Start() {
	w.logger.Info("Starting JournalWorker")
	go w.run()
}

// Stop drains already queued events before returning.
func (w *JournalWorker) Stop() {
	w.logger.Info("Stopping JournalWorker")
	close(w.stopChan)
	<-w.doneChan
}

// Record implements domain.JournalSink. It never blocks the caller: a full
// buffer drops the event.
func (w *JournalWorker) Record(_ context.Context, event domain.JournalEvent) error {
	select {
	case w.events <- event:
		return nil
	default:
		w.logger.Warn("journal_buffer_full_dropping_event", slog.String("kind", event.Kind()))
		return nil
	}
}

func (w *JournalWorker) run() {
	defer close(w.doneChan)
	for {
		select {
		case event := <-w.events:
			w.deliver(event)
		case <-w.stopChan:
			for {
				select {
				case event := <-w.events:
					w.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (w *JournalWorker) deliver(event domain.JournalEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := w.sink.Record(ctx, event); err != nil {
		w.logger.Error("Failed to deliver journal event",
			slog.String("kind", event.Kind()),
			slog.String("error", err.Error()))
	}
}
