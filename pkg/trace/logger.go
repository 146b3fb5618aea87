package trace

import (
	"context"
	"log/slog"

	"github.com/kode4food/bpmspec/pkg/log"
)

type logSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogger creates a sink that emits each phrase as a structured log
// record at info level. A nil logger means slog.Default()
func NewLogger(logger *slog.Logger) Sink {
	return NewLoggerAt(logger, slog.LevelInfo)
}

// NewLoggerAt creates a logging sink that emits at the given level
func NewLoggerAt(logger *slog.Logger, lvl slog.Level) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{
		logger: logger,
		level:  lvl,
	}
}

func (s *logSink) Write(p Phrase) {
	s.logger.LogAttrs(context.Background(), s.level, p.Text,
		log.Scenario(p.Scenario),
		slog.String("kind", string(p.Kind)),
	)
}
