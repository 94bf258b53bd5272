package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config controls the structured event sink. Logging is a side channel for
// the orchestrator; the pipeline stages receive the sink by reference and
// never reach into process-global state.
type Config struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Level   string `json:"level" yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the default sink configuration.
func DefaultConfig() Config {
	return Config{Enabled: true, Level: "info"}
}

// New constructs a JSON-formatted logrus sink from the given configuration.
// A disabled sink discards everything.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()

	if !cfg.Enabled {
		logger.SetOutput(io.Discard)
		logger.SetLevel(logrus.PanicLevel)
		return logger
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp_utc",
			logrus.FieldKeyMsg:  "message",
		},
	})
	return logger
}
