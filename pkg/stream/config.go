package stream

import "time"

// Config bounds a single stream connection.
type Config struct {
	// Duration is how long a connection is served before bye.
	Duration      time.Duration `env:"STREAM_DURATION" envDefault:"110s"`
	PollInterval  time.Duration `env:"STREAM_POLL_INTERVAL" envDefault:"2s"`
	BatchSize     int           `env:"STREAM_BATCH_SIZE" envDefault:"50"`
	TouchInterval time.Duration `env:"STREAM_TOUCH_INTERVAL" envDefault:"30s"`
	// MaxAge hides rows older than this from the poll. Zero disables the window.
	MaxAge time.Duration `env:"STREAM_MAX_AGE" envDefault:"168h"`
	// MaxSkipped caps the per-connection set of suppressed row ids.
	MaxSkipped int `env:"STREAM_MAX_SKIPPED" envDefault:"500"`
}

// DefaultConfig mirrors the envDefault values.
func DefaultConfig() Config {
	return Config{
		Duration:      110 * time.Second,
		PollInterval:  2 * time.Second,
		BatchSize:     50,
		TouchInterval: 30 * time.Second,
		MaxAge:        168 * time.Hour,
		MaxSkipped:    500,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.TouchInterval <= 0 {
		c.TouchInterval = d.TouchInterval
	}
	if c.MaxSkipped <= 0 {
		c.MaxSkipped = d.MaxSkipped
	}
	return c
}
