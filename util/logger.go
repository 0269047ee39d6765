package util

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jsphweid/midicompare/constants"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		level := slog.LevelInfo
		switch strings.ToLower(constants.GetLogLevel()) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		logger = slog.New(handler)
	})
	return logger
}
