package console_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	rts "github.com/goliatone/go-rts"
	"github.com/goliatone/go-rts/pkg/console"
)

func TestLoggerFiltersQuietEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := console.New(console.WithWriter(&buf))

	logger.Log(rts.LogEvent{Op: rts.OpLookup, Subject: "a.src"})
	logger.Log(rts.LogEvent{Op: rts.OpEvaluate, Target: "x", Subject: "cap.hasFPU"})
	if buf.Len() != 0 {
		t.Fatalf("expected lookups and evaluations to be hidden, got %q", buf.String())
	}

	logger.Log(rts.LogEvent{Op: rts.OpLookup, Subject: "b.src", Err: errors.New("not found")})
	logger.Log(rts.LogEvent{Op: rts.OpResolve, Target: "stm32g4xx", Duration: 1500 * time.Microsecond})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	for _, want := range []string{"lookup", "b.src", "not found"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("expected %q in %q", want, lines[0])
		}
	}
	for _, want := range []string{"resolve", "stm32g4xx", "1.5ms"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("expected %q in %q", want, lines[1])
		}
	}
}

func TestLoggerVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := console.New(console.WithWriter(&buf), console.WithVerbose(true))

	logger.Log(rts.LogEvent{Op: rts.OpLookup, Subject: "a.src"})
	if !strings.Contains(buf.String(), "a.src") {
		t.Fatalf("expected lookup in verbose output, got %q", buf.String())
	}
}

func TestLoggerAsEnvironmentLogger(t *testing.T) {
	var buf bytes.Buffer
	env := rts.NewEnvironment(rts.WithLogger(console.New(console.WithWriter(&buf))))

	if _, err := env.ResolveTarget("missing"); err == nil {
		t.Fatalf("expected unknown target")
	}
	if !strings.Contains(buf.String(), `unknown target "missing"`) {
		t.Fatalf("expected the failure to be printed, got %q", buf.String())
	}
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := console.New(console.WithWriter(&buf))

	logger.Info("Manifest", "3 files")
	logger.Error("Resolve", errors.New("boom"))
	logger.Error("Ignored", nil)

	out := buf.String()
	for _, want := range []string{"Manifest", "3 files", "Resolve", "boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "Ignored") {
		t.Fatalf("nil errors must not be printed")
	}
}
