package followup

import (
	"context"
	"time"

	"github.com/kaizendigital/leadflow/pkg/logging"
)

// Dispatcher delivers a message over a channel. Implementations live in
// internal/notify; the worker only needs this contract.
type Dispatcher interface {
	Send(ctx context.Context, recipient string, channel Channel, body string) error
}

// Observer records scheduling and dispatch outcomes, typically backed by
// Prometheus counters.
type Observer interface {
	ObserveScheduled(timing, channel string)
	ObserveDispatch(channel, status string, seconds float64)
}

// Worker periodically sweeps due scheduled messages and hands them to the
// dispatcher. Delivery promptness is bounded by the sweep interval; there is
// no push path.
type Worker struct {
	store      Store
	dispatcher Dispatcher
	logger     *logging.Logger
	batchSize  int
	metrics    Observer
}

// NewWorker creates a dispatch worker.
func NewWorker(store Store, dispatcher Dispatcher, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		batchSize:  25,
	}
}

// WithBatchSize overrides the per-sweep batch size.
func (w *Worker) WithBatchSize(n int) *Worker {
	if n > 0 {
		w.batchSize = n
	}
	return w
}

// WithMetrics attaches a dispatch observer.
func (w *Worker) WithMetrics(m Observer) *Worker {
	w.metrics = m
	return w
}

// ProcessDue sends every due message once. A dispatch failure marks the
// message failed and moves on; it never aborts the sweep and is never retried
// automatically.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	due, err := w.store.ListDue(ctx, time.Now().UTC(), w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	w.logger.Info("followup worker: processing due messages", "count", len(due))

	sent := 0
	for i := range due {
		m := &due[i]
		started := time.Now()
		if err := w.dispatcher.Send(ctx, m.Recipient, m.Channel, m.Body); err != nil {
			w.logger.Error("followup worker: dispatch failed",
				"id", m.ID, "lead_id", m.LeadID, "channel", m.Channel, "error", err)
			w.observe(m.Channel, "failed", started)
			if markErr := w.store.MarkFailed(ctx, m.ID, err.Error()); markErr != nil {
				w.logger.Error("followup worker: mark failed", "id", m.ID, "error", markErr)
			}
			continue
		}
		w.observe(m.Channel, "sent", started)
		if err := w.store.MarkSent(ctx, m.ID); err != nil {
			w.logger.Error("followup worker: mark sent", "id", m.ID, "error", err)
			continue
		}
		w.logger.Info("followup worker: message sent",
			"id", m.ID, "lead_id", m.LeadID, "timing", m.Timing, "channel", m.Channel)
		sent++
	}
	return sent, nil
}

func (w *Worker) observe(channel Channel, status string, started time.Time) {
	if w.metrics == nil {
		return
	}
	w.metrics.ObserveDispatch(string(channel), status, time.Since(started).Seconds())
}

// Run sweeps on a fixed interval until the context is canceled.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("followup worker: started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("followup worker: stopped")
			return
		case <-ticker.C:
			if _, err := w.ProcessDue(ctx); err != nil {
				w.logger.Error("followup worker: sweep failed", "error", err)
			}
		}
	}
}
