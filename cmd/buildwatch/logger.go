package main

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/npratt/buildwatch/internal/config"
)

// LoggerResult contains the debug logger and the file behind it.
type LoggerResult struct {
	Logger   *slog.Logger
	LogFile  io.WriteCloser
	FilePath string
}

// Close closes the log file if it was opened.
func (r *LoggerResult) Close() error {
	if r.LogFile != nil {
		return r.LogFile.Close()
	}
	return nil
}

// SetupLogger creates a logger that writes JSON to a rotating file. The
// dashboard owns the terminal, so nothing is ever logged to stderr while
// it runs. The file is opened lazily on the first write.
func SetupLogger(path string, level slog.Leveler, rotationCfg config.LogRotationConfig) *LoggerResult {
	debugLogWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotationCfg.MaxSizeMB,
		MaxBackups: rotationCfg.MaxBackups,
		MaxAge:     rotationCfg.MaxAgeDays,
		Compress:   rotationCfg.Compress,
	}

	return &LoggerResult{
		Logger:   SetupLoggerWithWriter(debugLogWriter, level),
		LogFile:  debugLogWriter,
		FilePath: path,
	}
}

// SetupLoggerWithWriter creates a JSON logger that writes to w.
func SetupLoggerWithWriter(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
