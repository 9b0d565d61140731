package main

import (
	"fmt"
	"io"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a development zap logger writing to w, wrapped as a logr.Logger.
// Verbosity v enables logr levels up to V(v).
func newLogger(w io.Writer, verbosity int) logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	level := zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg.EncoderConfig), zapcore.AddSync(w), level)
	return zapr.NewLogger(zap.New(core))
}

// badgerLogger forwards badger's logs to a logr.Logger.
type badgerLogger struct {
	logger logr.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(nil, fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.V(1).Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.V(2).Info(fmt.Sprintf(format, args...))
}

var _ badger.Logger = badgerLogger{}
