package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes single-line structured events tagged with service, action and correlation ids.
type Logger struct {
	service  string
	hostname string
	zl       zerolog.Logger
}

// Options tunes the output of a Logger.
type Options struct {
	Format string // "json" (default) or "console"
	Level  string // debug | info | error
	Out    io.Writer
}

// New creates a JSON logger on stdout for the given service.
func New(service string) *Logger {
	return NewWithOptions(service, Options{})
}

// NewWithOptions creates a structured logger for the given service.
func NewWithOptions(service string, opts Options) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}

	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("hostname", hn).
		Logger()

	return &Logger{service: service, hostname: hn, zl: zl}
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.event(ctx, l.zl.Debug(), action, details).Msg(strings.TrimSpace(msg))
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.event(ctx, l.zl.Info(), action, details).Msg(strings.TrimSpace(msg))
}

// Error writes an ERROR line with the error attached.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	l.event(ctx, l.zl.Error(), action, details).Err(err).Msg(strings.TrimSpace(msg))
}

func (l *Logger) event(ctx context.Context, e *zerolog.Event, action string, details any) *zerolog.Event {
	e = e.Str("action", safeAction(action))
	if id := requestID(ctx); id != "" {
		e = e.Str("request_id", id)
	}
	if id := tripID(ctx); id != "" {
		e = e.Str("trip_id", id)
	}
	switch d := details.(type) {
	case nil:
	case map[string]any:
		e = e.Fields(d)
	default:
		e = e.Interface("details", d)
	}
	return e
}

// ------------ Context helpers -------------

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "ridetracker_request_id"
	ctxKeyTripID    ctxKey = "ridetracker_trip_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	if strings.TrimSpace(reqID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, reqID)
}

// WithTripID returns a new context carrying trip_id.
func (l *Logger) WithTripID(ctx context.Context, tripID string) context.Context {
	if strings.TrimSpace(tripID) == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyTripID, tripID)
}

func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func tripID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKeyTripID).(string); ok {
		return s
	}
	return ""
}

func safeAction(a string) string {
	a = strings.TrimSpace(a)
	if a == "" {
		return "unspecified"
	}
	return a
}

// Nop returns a logger that discards everything; handy in tests.
func Nop() *Logger {
	return &Logger{service: "nop", hostname: "nop", zl: zerolog.Nop()}
}
