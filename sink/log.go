package sink

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mklimuk/hegemone/report"
)

// Log writes every reading as JSON to a structured logger.
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLog logs at debug level to logger, or to the default logger if nil.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, level: slog.LevelDebug}
}

func (l *Log) WithLevel(level slog.Level) *Log {
	l.level = level
	return l
}

func (l *Log) Name() string {
	return "log"
}

func (l *Log) Submit(ctx context.Context, r report.Reading) error {
	if !l.logger.Enabled(ctx, l.level) {
		return nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	l.logger.Log(ctx, l.level, "plant reading", "device", r.DeviceID, "data", string(b))
	return nil
}
