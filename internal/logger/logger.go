// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger is the allocator's structured-logging surface: a
// process-wide default logger (Tracef/Debugf/Infof/Warnf/Errorf) configured
// from cfg.LoggingConfig, plus a per-instance Logger handle that satisfies
// the allocator's nil-safe trace hook.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/duotier/duotier/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Shutdown flushes and closes the file-backed async logger InitLogFile may
// have started. It is a no-op when logging was never routed to a file, so
// callers can register it unconditionally as a common.ShutdownFn.
func Shutdown(ctx context.Context) error {
	if defaultLoggerFactory.async == nil {
		return nil
	}
	err := defaultLoggerFactory.async.Close()
	defaultLoggerFactory.async = nil
	return err
}

// timeLayout renders a fixed-width, sortable timestamp: 26 characters,
// matching what operators grep in text-formatted log files.
const timeLayout = "2006/01/02 15:04:05.000000"

// Custom severities. slog predefines Debug/Info/Warn/Error; Trace sits below
// Debug and Off sits above Error so it filters out everything, including
// Error.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

func levelName(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return "TRACE"
	case l < LevelInfo:
		return "DEBUG"
	case l < LevelWarn:
		return "INFO"
	case l < LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// setLoggingLevel maps one of the six severity strings this package
// recognizes onto programLevel. Unknown strings fall back to INFO.
func setLoggingLevel(severity string, programLevel *slog.LevelVar) {
	switch severity {
	case "TRACE":
		programLevel.Set(LevelTrace)
	case "DEBUG":
		programLevel.Set(LevelDebug)
	case "WARNING":
		programLevel.Set(LevelWarn)
	case "ERROR":
		programLevel.Set(LevelError)
	case "OFF":
		programLevel.Set(LevelOff)
	default:
		programLevel.Set(LevelInfo)
	}
}

// loggerFactory builds the handler behind the process-wide default logger
// and remembers enough state (format, severity, rotation) for InitLogFile
// and SetLogFormat to reconfigure it later without dropping settings the
// caller didn't touch.
type loggerFactory struct {
	sysWriter       io.Writer
	format          string
	level           string
	logRotateConfig cfg.LogRotateConfig
	async           *AsyncLogger
}

func (f *loggerFactory) writer() io.Writer {
	if f.sysWriter != nil {
		return f.sysWriter
	}
	return os.Stderr
}

// createJsonOrTextHandler builds a handler that renames slog's built-in
// time/level/msg attrs to timestamp-or-time/severity/message, stamps every
// message with prefix, and reports levels by the five-severity vocabulary
// this package uses instead of slog's own level names.
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, prefix string) slog.Handler {
	replace := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.TimeKey:
			if f.format == "text" {
				return slog.String("time", a.Value.Time().Format(timeLayout))
			}
			t := a.Value.Time()
			return slog.Attr{
				Key: "timestamp",
				Value: slog.GroupValue(
					slog.Int64("seconds", t.Unix()),
					slog.Int64("nanos", int64(t.Nanosecond())),
				),
			}
		case slog.LevelKey:
			lvl, _ := a.Value.Any().(slog.Level)
			return slog.String("severity", levelName(lvl))
		case slog.MessageKey:
			return slog.String("message", prefix+a.Value.String())
		default:
			return a
		}
	}

	opts := &slog.HandlerOptions{Level: programLevel, ReplaceAttr: replace}
	if f.format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

var (
	defaultLoggerFactory = &loggerFactory{
		format:          "json",
		level:           "INFO",
		logRotateConfig: cfg.DefaultLogRotateConfig(),
	}
	defaultProgramLevel = func() *slog.LevelVar {
		pl := new(slog.LevelVar)
		setLoggingLevel(defaultLoggerFactory.level, pl)
		return pl
	}()
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, defaultProgramLevel, ""))
)

// SetLogFormat switches the default logger between "json" and "text"
// output, preserving its current severity and destination.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	pl := new(slog.LevelVar)
	setLoggingLevel(defaultLoggerFactory.level, pl)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.writer(), pl, ""))
}

// InitLogFile reconfigures the default logger per logCfg: an empty FilePath
// keeps logging on stderr; a non-empty one routes through a lumberjack-
// rotated file via an AsyncLogger, so a slow disk never blocks a caller's
// allocation path.
func InitLogFile(logCfg cfg.LoggingConfig) error {
	defaultLoggerFactory.format = logCfg.Format
	defaultLoggerFactory.level = logCfg.Severity
	defaultLoggerFactory.logRotateConfig = logCfg.LogRotate

	var w io.Writer = os.Stderr
	if logCfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   logCfg.FilePath,
			MaxSize:    logCfg.LogRotate.MaxFileSizeMB,
			MaxBackups: logCfg.LogRotate.BackupFileCount,
			Compress:   logCfg.LogRotate.Compress,
		}
		defaultLoggerFactory.async = NewAsyncLogger(lj, 1024)
		w = defaultLoggerFactory.async
	}
	defaultLoggerFactory.sysWriter = w

	pl := new(slog.LevelVar)
	setLoggingLevel(defaultLoggerFactory.level, pl)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, pl, ""))
	return nil
}

func Tracef(format string, v ...any) { log(LevelTrace, format, v...) }
func Debugf(format string, v ...any) { log(LevelDebug, format, v...) }
func Infof(format string, v ...any)  { log(LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { log(LevelWarn, format, v...) }
func Errorf(format string, v ...any) { log(LevelError, format, v...) }

func log(level slog.Level, format string, v ...any) {
	defaultLogger.Log(context.Background(), level, fmt.Sprintf(format, v...))
}

// Logger is a per-component structured-logging handle. Its zero value and a
// nil *Logger are both safe to use — every method becomes a no-op — so it
// can be threaded into duotier.Options.Log unconditionally.
type Logger struct {
	slog *slog.Logger
}

// New returns a Logger backed by the process-wide default logger.
func New() *Logger { return &Logger{slog: defaultLogger} }

// Tracef satisfies the allocator's trace hook.
func (l *Logger) Tracef(format string, v ...any) {
	if l == nil || l.slog == nil {
		return
	}
	l.slog.Log(context.Background(), LevelTrace, fmt.Sprintf(format, v...))
}
