package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orders-payments-saga/config"
	kafkactrl "orders-payments-saga/internal/controller/kafka"
	"orders-payments-saga/internal/controller/restapi"
	"orders-payments-saga/internal/controller/worker/outbox"
	"orders-payments-saga/internal/entity"
	infrakafka "orders-payments-saga/internal/infrastructure/kafka"
	"orders-payments-saga/internal/repo/persistent"
	outboxuc "orders-payments-saga/internal/usecase/outbox"
	paymentuc "orders-payments-saga/internal/usecase/payment"
	"orders-payments-saga/pkg/httpserver"
	"orders-payments-saga/pkg/kafka/consumer"
	"orders-payments-saga/pkg/kafka/producer"
	"orders-payments-saga/pkg/logger"
	"orders-payments-saga/pkg/postgres"
)

// RunPayments wires and runs the payments service: the accounts API, the
// outbox dispatcher and the payment-requests consumer.
func RunPayments(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPayments - postgres.New: %w", err))
	}
	defer pg.Close()

	accountRepo := persistent.NewAccountRepo(pg)
	chargeRepo := persistent.NewChargeRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)
	inboxRepo := persistent.NewInboxRepo(pg)

	// Use-Case
	paymentUseCase := paymentuc.New(accountRepo, chargeRepo, inboxRepo, outboxRepo, pg, l)
	outboxUseCase := outboxuc.New(outboxRepo)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPayments - producer.New: %w", err))
	}

	// Outbox Dispatcher Worker
	dispatcher := outbox.New(
		outboxUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic),
		l,
		cfg.Dispatcher.PollInterval,
		cfg.Dispatcher.ProcessBatchTimeout,
		cfg.Dispatcher.BatchSize,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPayments - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		infrakafka.NewEventConsumer(kafkaConsumer),
		map[string]kafkactrl.Handler{
			entity.EventPaymentRequested: kafkactrl.PaymentRequestedHandler(paymentUseCase),
		},
		l,
		cfg.Consumer.CommitTimeout,
		cfg.Consumer.ProcessTimeout,
		cfg.Consumer.RetryInterval,
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewPaymentsRouter(httpServer.App, cfg, paymentUseCase, l)

	// Start Components
	err = dispatcher.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPayments - dispatcher.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunPayments - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - RunPayments - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - RunPayments - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunPayments - httpServer.Shutdown: %w", err))
	}

	shutdown(ctx, cfg, l, dispatcher, kafkaController)
}
