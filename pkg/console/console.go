// Package console prints resolution events on a terminal.
package console

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	rts "github.com/goliatone/go-rts"
	"github.com/pterm/pterm"
)

var (
	InfoStyleBG  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	InfoColorFG  = pterm.FgLightGreen
	ErrorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	ErrorColorFG = pterm.FgRed
	OpStyleBG    = pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)
	DimColorFG   = pterm.FgGray
)

// Logger is an rts.Logger writing one styled line per event. Source lookups
// and rule evaluations are only shown when verbose, failures always are.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// Option configures a Logger.
type Option func(*Logger)

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		if w != nil {
			l.out = w
		}
	}
}

// WithVerbose shows every event.
func WithVerbose(verbose bool) Option {
	return func(l *Logger) {
		l.verbose = verbose
	}
}

// New constructs a Logger.
func New(opts ...Option) *Logger {
	l := &Logger{out: os.Stderr}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Log implements rts.Logger.
func (l *Logger) Log(event rts.LogEvent) {
	if event.Err == nil && !l.verbose && (event.Op == rts.OpLookup || event.Op == rts.OpEvaluate) {
		return
	}

	var b strings.Builder
	tag := " " + event.Op + " "
	if event.Err != nil {
		b.WriteString(ErrorStyleBG.Sprint(tag))
	} else {
		b.WriteString(OpStyleBG.Sprint(tag))
	}
	for _, part := range []string{event.Target, event.Subject} {
		if part != "" {
			b.WriteString(" " + part)
		}
	}
	if event.Duration > 0 {
		b.WriteString(" " + DimColorFG.Sprint(event.Duration.Round(time.Microsecond).String()))
	}
	if event.Err != nil {
		b.WriteString(" " + ErrorColorFG.Sprint(event.Err.Error()))
	}
	l.write(b.String())
}

// Error prints err under tag.
func (l *Logger) Error(tag string, err error) {
	if err == nil {
		return
	}
	l.write(ErrorStyleBG.Sprint(tag) + " " + ErrorColorFG.Sprint(err.Error()))
}

// Info prints msg under tag.
func (l *Logger) Info(tag, msg string) {
	l.write(InfoStyleBG.Sprint(tag) + " " + InfoColorFG.Sprint(msg))
}

func (l *Logger) write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line+"\n")
}
