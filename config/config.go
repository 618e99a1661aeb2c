package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP       HTTP
		Log        Log
		PG         PG
		Kafka      Kafka
		Dispatcher Dispatcher
		Consumer   Consumer
		Swagger    Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		GroupID string   `env:"KAFKA_GROUP_ID,required"`
		Topic   string   `env:"KAFKA_TOPIC" envDefault:"orders"`
	}

	Dispatcher struct {
		PollInterval        time.Duration `env:"DISPATCHER_POLL_INTERVAL" envDefault:"2s"`
		ProcessBatchTimeout time.Duration `env:"DISPATCHER_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"DISPATCHER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"DISPATCHER_BATCH_SIZE" envDefault:"100"`
	}

	Consumer struct {
		CommitTimeout   time.Duration `env:"CONSUMER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"CONSUMER_PROCESS_TIMEOUT" envDefault:"15s"`
		RetryInterval   time.Duration `env:"CONSUMER_RETRY_INTERVAL" envDefault:"1s"`
		ShutdownTimeout time.Duration `env:"CONSUMER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
