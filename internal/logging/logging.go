package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger: text output on stderr at the given level,
// optionally mirrored to a size-rotated log file. Components receive this
// logger (or a derived field logger) explicitly; nothing in the core reads
// a package global.
func New(level, file string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if file != "" {
		out, err := fileOutput(file)
		if err != nil {
			// Fall back to stderr-only rather than refusing to start.
			logger.WithError(err).Warn("log file unavailable, logging to stderr only")
		} else {
			logger.SetOutput(io.MultiWriter(os.Stderr, out))
		}
	}

	return logger, nil
}

func fileOutput(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}, nil
}
