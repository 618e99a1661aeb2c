package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/pkg/kafka/producer"
)

type EventProducer struct {
	*producer.Producer
	topic string
}

func NewEventProducer(producer *producer.Producer, topic string) *EventProducer {
	return &EventProducer{
		producer,
		topic,
	}
}

// SendEvent publishes one outbox row keyed by its aggregate id, so all
// events of one order land on one partition in write order. WriteMessages
// returns only after the RequireAll ack.
func (ep *EventProducer) SendEvent(ctx context.Context, msg *entity.OutboxMessage) error {
	kafkaMsg := kafka.Message{
		Topic: ep.topic,
		Key:   []byte(msg.AggregateID.String()),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.EventID.String())},
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "outbox_id", Value: []byte(strconv.FormatInt(msg.ID, 10))},
		},
	}

	err := ep.Writer.WriteMessages(ctx, kafkaMsg)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvent - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
