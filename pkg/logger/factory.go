package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config holds logger settings read from the environment.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Service     string `env:"APP_NAME" envDefault:"notifyhub"`
	// File enables an additional rotating log file when set.
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_FILE_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_FILE_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_FILE_MAX_AGE_DAYS" envDefault:"14"`
}

// Option configures logger creation.
type Option func(*options)

type options struct {
	level      slog.Level
	format     Format
	output     io.Writer
	extra      []io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithFormat sets the output format. Panics on unknown formats so a
// misconfigured binary fails at startup.
func WithFormat(f Format) Option {
	return func(o *options) {
		switch f {
		case FormatJSON, FormatText:
			o.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput replaces the primary destination. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithRotatingFile mirrors every record into a size-rotated file.
func WithRotatingFile(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		if path == "" {
			return
		}
		o.extra = append(o.extra, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		})
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add request-scoped
// attributes at log time.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		for _, ex := range extractors {
			if ex != nil {
				o.extractors = append(o.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies per-environment defaults: debug text output for
// development, info JSON output otherwise.
func WithEnvironment(env, service string) Option {
	return func(o *options) {
		e := ParseEnvironment(env)
		if e == Development {
			o.level = slog.LevelDebug
			o.format = FormatText
		} else {
			o.level = slog.LevelInfo
			o.format = FormatJSON
		}
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
		o.attrs = append(o.attrs, slog.String("env", string(e)))
	}
}

// New creates a slog.Logger. Defaults to JSON at info level on stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	out := o.output
	if len(o.extra) > 0 {
		out = io.MultiWriter(append([]io.Writer{o.output}, o.extra...)...)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var handler slog.Handler
	if o.format == FormatText {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}

	return slog.New(NewLogHandlerDecorator(handler, o.extractors...))
}

// FromConfig builds a logger from environment settings.
func FromConfig(cfg Config, opts ...Option) *slog.Logger {
	base := []Option{
		WithEnvironment(cfg.Environment, cfg.Service),
		WithRotatingFile(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays),
	}
	return New(append(base, opts...)...)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type ctxKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
