package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"orders-payments-saga/internal/infrastructure"
	"orders-payments-saga/internal/usecase"
	"orders-payments-saga/pkg/logger"
)

// Dispatcher drains undispatched outbox rows to the broker. Delivery is
// at-least-once: a row is marked dispatched only after the publish was
// acknowledged, and a crash between the ack and the mark republishes the
// row on restart.
type Dispatcher struct {
	outbox usecase.OutboxUseCase
	es     infrastructure.EventsSender
	logger logger.Interface

	pollInterval        time.Duration
	processBatchTimeout time.Duration
	batchSize           int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	outbox usecase.OutboxUseCase,
	es infrastructure.EventsSender,
	l logger.Interface,
	pollInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
) *Dispatcher {
	return &Dispatcher{
		outbox:              outbox,
		es:                  es,
		logger:              l,
		pollInterval:        pollInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Dispatcher - Start - worker already started")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.worker(d.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(d.ctx, d.processBatchTimeout)
		d.dispatchBatch(batchCtx)
		batchCancel()
	})

	return nil
}

func (d *Dispatcher) dispatchBatch(ctx context.Context) {
	// 1. oldest undispatched rows first, FIFO-ish fairness
	msgs, err := d.outbox.FetchUndispatched(ctx, d.batchSize)
	if err != nil {
		d.logger.Error(err, "Dispatcher - dispatchBatch - d.outbox.FetchUndispatched")

		return
	}
	if len(msgs) == 0 {
		return
	}

	for _, msg := range msgs {
		// 2. publish keyed by aggregate id, wait for the broker ack
		err = d.es.SendEvent(ctx, msg)
		if err != nil {
			// One bad row must not halt the batch; the row stays
			// undispatched and is retried next pass.
			d.logger.Error(err, "Dispatcher - dispatchBatch - d.es.SendEvent")

			continue
		}

		// 3. only after the ack, mark the row dispatched
		err = d.outbox.MarkDispatched(ctx, msg.ID)
		if err != nil {
			d.logger.Error(err, "Dispatcher - dispatchBatch - d.outbox.MarkDispatched")
		}
	}
}

func (d *Dispatcher) worker(interval time.Duration, task func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if !d.started.Load() {
		return nil
	}

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})

	go func() {
		d.wg.Wait()
		d.es.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
