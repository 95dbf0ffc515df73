package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"splitledger/ledger"
)

// Notifier delivers the notifications for one ledger event.
type Notifier interface {
	Notify(ctx context.Context, ev ledger.Event) error
}

// Worker delivers notifications off the request path. Enqueue never blocks:
// when the buffer is full the event is dropped with a warning.
type Worker struct {
	eventCh  chan ledger.Event
	notifier Notifier
	log      *zap.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewWorker(notifier Notifier, bufferSize int, log *zap.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh:  make(chan ledger.Event, bufferSize),
		notifier: notifier,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.ctx.Done():
				w.log.Info("draining notifications before shutdown", zap.Int("remaining", len(w.eventCh)))
				for len(w.eventCh) > 0 {
					w.deliver(context.Background(), <-w.eventCh)
				}
				return
			case ev := <-w.eventCh:
				w.deliver(w.ctx, ev)
			}
		}
	}()
}

func (w *Worker) deliver(ctx context.Context, ev ledger.Event) {
	if err := w.notifier.Notify(ctx, ev); err != nil {
		w.log.Error("failed to send notification", zap.Uint64("seq", ev.Seq), zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}

func (w *Worker) Enqueue(ev ledger.Event) {
	select {
	case w.eventCh <- ev:
	default:
		w.log.Warn("notification queue full, dropping event", zap.Uint64("seq", ev.Seq), zap.String("kind", string(ev.Kind)))
	}
}

// Shutdown stops the worker after delivering everything still queued.
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}
