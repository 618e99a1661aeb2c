package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"orders-payments-saga/pkg/logger"
)

// Handler applies one well-formed event. A returned ErrMalformedEvent is a
// poison message (skipped and committed); any other error is transient and
// the same message is retried without an offset commit.
type Handler func(ctx context.Context, raw []byte) error

// ErrMalformedEvent marks a message that can never be processed.
var ErrMalformedEvent = errors.New("malformed event")

// EventReader is the broker side of the consumer loop.
type EventReader interface {
	ReadEvent(ctx context.Context) (kafka.Message, error)
	CommitEvent(ctx context.Context, event kafka.Message) error
	Close() error
}

// KafkaController runs one sequential consume loop per topic of interest.
// Sequential on purpose: per-aggregate ordering relies on processing a
// partition's messages in fetch order.
type KafkaController struct {
	ec       EventReader
	handlers map[string]Handler
	logger   logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	retryInterval  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	ec EventReader,
	handlers map[string]Handler,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	retryInterval time.Duration,
) *KafkaController {
	return &KafkaController{
		ec:             ec,
		handlers:       handlers,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		retryInterval:  retryInterval,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				event, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}

					c.logger.Error(err, "KafkaController - Start - c.ec.ReadEvent")

					// A broker outage must not spin the loop hot.
					select {
					case <-c.ctx.Done():
					case <-time.After(c.retryInterval):
					}

					continue
				}

				c.processEvent(event)
			}
		}
	}()

	return nil
}

// envelope carries just enough to route the message.
type envelope struct {
	Type string `json:"type"`
}

// processEvent applies one message and commits its offset. The offset is
// committed in exactly two cases: the handler transaction committed, or
// the message is a deliberate skip (poison or foreign event type). A
// transient handler failure keeps the message in hand and retries it
// after a pause, so a store outage stalls the partition instead of
// losing the effect.
func (c *KafkaController) processEvent(event kafka.Message) {
	var env envelope
	if err := json.Unmarshal(event.Value, &env); err != nil {
		c.logger.Warn("KafkaController - processEvent - invalid JSON at %s/%d/%d, skipping: %v",
			event.Topic, event.Partition, event.Offset, err)
		c.commitEvent(event)

		return
	}

	handler, ok := c.handlers[env.Type]
	if !ok {
		// Foreign event type on a shared topic.
		c.commitEvent(event)

		return
	}

	for {
		processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
		err := handler(processCtx, event.Value)
		processCancel()

		if err == nil {
			c.commitEvent(event)

			return
		}

		if errors.Is(err, ErrMalformedEvent) {
			c.logger.Warn("KafkaController - processEvent - malformed event at %s/%d/%d, skipping: %v",
				event.Topic, event.Partition, event.Offset, err)
			c.commitEvent(event)

			return
		}

		c.logger.Error(err, "KafkaController - processEvent - handler")

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(c.retryInterval):
		}
	}
}

func (c *KafkaController) commitEvent(event kafka.Message) {
	commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
	defer commitCancel()

	err := c.ec.CommitEvent(commitCtx, event)
	if err != nil {
		c.logger.Error(err, "KafkaController - commitEvent - c.ec.CommitEvent")
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.ec.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
