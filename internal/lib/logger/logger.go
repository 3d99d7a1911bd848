package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"

	logFile = "caselink.log"
)

// SetupLogger returns a text logger for local runs and a JSON logger otherwise.
// Records are also written to logPath/caselink.log when the directory is writable.
func SetupLogger(env, logPath string) *slog.Logger {
	var w io.Writer = os.Stdout
	if env != envLocal && logPath != "" {
		f, err := os.OpenFile(filepath.Join(logPath, logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			w = io.MultiWriter(os.Stdout, f)
		}
	}

	var logger *slog.Logger
	switch env {
	case envLocal:
		logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return logger
}
