package queue

import "time"

// Config holds the configuration for the channel queue workers.
type Config struct {
	PollInterval     time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"5s"`
	BatchSize        int           `env:"QUEUE_BATCH_SIZE" envDefault:"50"`
	RunTimeout       time.Duration `env:"QUEUE_RUN_TIMEOUT" envDefault:"5m"`
	RetryMaxAttempts int           `env:"QUEUE_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryBackoff     time.Duration `env:"QUEUE_RETRY_BACKOFF" envDefault:"5m"`
}
