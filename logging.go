package rts

import "time"

// Operations reported through Logger.
const (
	OpResolve  = "resolve"
	OpExtend   = "extend"
	OpLookup   = "lookup"
	OpEvaluate = "evaluate"
	OpNotify   = "notify"
)

// LogEvent describes one resolution step for logging.
type LogEvent struct {
	Op       string
	Target   string
	Subject  string
	Duration time.Duration
	Err      error
}

// Logger records resolution events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
