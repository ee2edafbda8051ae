// Package logger provides context-aware structured logging using logrus.
// Pipeline stages attach run, source and pass fields to the context logger
// so every line can be traced back to the input it concerns.
package logger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// L is the process-wide entry returned when the context carries no logger
var L = logrus.NewEntry(newLogger())

type loggerKey struct{}

// WithLogger returns a context carrying entry
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry.WithContext(ctx))
}

// WithField returns a context whose logger carries the given field.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithLogger(ctx, G(ctx).WithField(key, value))
}

// G returns the logger of ctx, falling back to L.
func G(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return L.WithContext(ctx)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	setFormat(l, "text")
	return l
}

func setFormat(l *logrus.Logger, format string) {
	if format == "json" {
		l.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
		return
	}
	l.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339Nano,
		FullTimestamp:   true,
	}
}

// Configure applies the level and format ("json", anything else is text) to
// L. An invalid level leaves the logger untouched.
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	L.Logger.SetLevel(lvl)
	setFormat(L.Logger, format)
	return nil
}
