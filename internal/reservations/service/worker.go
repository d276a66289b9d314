package service

import (
	"context"
	"sync"
	"time"

	"reservatec/pkg/logger"
)

// CompletionWorker periodically completes approved reservations whose slot
// has ended.
type CompletionWorker struct {
	svc      ReservationService
	interval time.Duration
	log      *logger.Logger

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewCompletionWorker(svc ReservationService, interval time.Duration, log *logger.Logger) *CompletionWorker {
	return &CompletionWorker{
		svc:      svc,
		interval: interval,
		log:      log.Component("completion-worker"),
		stop:     make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until ctx is
// done or Stop is called.
func (w *CompletionWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.log.Info("Starting completion worker", "interval", w.interval.String())

		w.run(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.run(ctx)
			case <-w.stop:
				w.log.Info("Completion worker stopped")
				return
			case <-ctx.Done():
				w.log.Info("Completion worker cancelled")
				return
			}
		}
	}()
}

func (w *CompletionWorker) run(ctx context.Context) {
	if _, err := w.svc.CompleteEnded(ctx); err != nil {
		w.log.Error("Failed to complete ended reservations", "error", err)
	}
}

// Stop signals the worker and waits for the current pass to finish.
func (w *CompletionWorker) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}
