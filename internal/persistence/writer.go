package persistence

import (
	"context"
	"log/slog"
	"time"
)

// Retry schedule for a failed cache write. Ingestion never waits on these; a
// write that exhausts the schedule is dropped, the in-memory state stays the
// source of truth until the next batch rewrites the row.
var writeBackoffs = []time.Duration{300 * time.Millisecond, 600 * time.Millisecond}

type job struct {
	label string
	write func(context.Context) error
}

// WriterQueue applies conversation, message and contact writes to the sqlite
// cache one at a time, off the reconciliation path.
type WriterQueue struct {
	logger *slog.Logger
	jobs   chan job
}

func NewWriterQueue(logger *slog.Logger, capacity int) *WriterQueue {
	if capacity <= 0 {
		capacity = 256
	}

	return &WriterQueue{
		logger: logger,
		jobs:   make(chan job, capacity),
	}
}

// Enqueue never blocks the caller: when the queue is full the hand-off moves
// to a goroutine so a slow disk cannot stall message ingestion.
func (w *WriterQueue) Enqueue(name string, fn func(context.Context) error) {
	j := job{label: name, write: fn}
	select {
	case w.jobs <- j:
	default:
		go func() { w.jobs <- j }()
	}
}

func (w *WriterQueue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case j := <-w.jobs:
				w.apply(ctx, j)
			}
		}
	}()
}

func (w *WriterQueue) apply(ctx context.Context, j job) {
	for attempt := 0; ; attempt++ {
		err := j.write(ctx)
		if err == nil {
			return
		}
		if attempt == len(writeBackoffs) {
			w.logger.Error("cache write dropped", "job", j.label, "error", err)

			return
		}
		w.logger.Warn("cache write failed, retrying", "job", j.label, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(writeBackoffs[attempt]):
		}
	}
}
