package authclient

import (
	"context"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the structured logger used across the package.
type Logger = glog.Logger

// LoggerProvider hands out named loggers.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...any)                 {}
func (noopLogger) Debug(string, ...any)                 {}
func (noopLogger) Info(string, ...any)                  {}
func (noopLogger) Warn(string, ...any)                  {}
func (noopLogger) Error(string, ...any)                 {}
func (noopLogger) Fatal(string, ...any)                 {}
func (l noopLogger) WithContext(context.Context) Logger { return l }

func defaultLogger() Logger {
	return noopLogger{}
}

type staticProvider struct {
	logger Logger
}

func (p staticProvider) GetLogger(string) Logger {
	return p.logger
}

// ResolveLogger returns a provider and a scoped logger for name. The
// provider wins when it yields a logger, otherwise the fallback is used,
// otherwise a no-op logger.
func ResolveLogger(name string, provider LoggerProvider, fallback Logger) (LoggerProvider, Logger) {
	if fallback == nil {
		fallback = defaultLogger()
	}

	if provider == nil {
		return staticProvider{logger: fallback}, fallback
	}

	if logger := provider.GetLogger(name); logger != nil {
		return provider, logger
	}

	return staticProvider{logger: fallback}, fallback
}
