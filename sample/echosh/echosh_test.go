package echosh

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pkt.systems/replx"
)

func TestPromptShowsUserAndCount(t *testing.T) {
	sh := New()
	state := State{User: "alice", Commands: 3}
	if got := sh.Prompt(&state); got != "alice:3> " {
		t.Fatalf("expected alice prompt, got %q", got)
	}
	state = State{}
	if got := sh.Prompt(&state); got != "echosh:0> " {
		t.Fatalf("expected fallback prompt, got %q", got)
	}
}

func TestPrepareRequiresStdinForCat(t *testing.T) {
	sh := New()
	prep := sh.Prepare("cat")
	if !prep.StdinRequired {
		t.Fatalf("expected cat to require stdin")
	}
	prep = sh.Prepare("  echo hi  ")
	if prep.StdinRequired {
		t.Fatalf("expected echo to not require stdin")
	}
	if prep.Command != "echo hi" {
		t.Fatalf("expected trimmed command, got %q", prep.Command)
	}
}

func TestExecuteEchoPreservesInnerSpacing(t *testing.T) {
	sh := New()
	state := State{}
	action, err := sh.Execute(context.Background(), &state, replx.CommandInput{Command: "echo a  b"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, ok := action.(replx.CommandOutput)
	if !ok {
		t.Fatalf("expected command output, got %T", action)
	}
	if len(out.Stdout) != 1 || out.Stdout[0] != "a  b" {
		t.Fatalf("expected echoed text, got %+v", out.Stdout)
	}
	if state.Commands != 1 {
		t.Fatalf("expected command count 1, got %d", state.Commands)
	}
}

func TestExecuteCatEchoesStdinVerbatim(t *testing.T) {
	sh := New()
	state := State{}
	stdin := []string{"one", "", "two"}
	action, err := sh.Execute(context.Background(), &state, replx.CommandInput{Command: "cat", Stdin: stdin})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := action.(replx.CommandOutput)
	if len(out.Stdout) != 3 || out.Stdout[0] != "one" || out.Stdout[1] != "" || out.Stdout[2] != "two" {
		t.Fatalf("expected stdin echoed in order, got %+v", out.Stdout)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	sh := New()
	state := State{}
	_, err := sh.Execute(context.Background(), &state, replx.CommandInput{Command: "nope"})
	if err == nil || !strings.Contains(err.Error(), "unknown command: nope") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteSleepCompletes(t *testing.T) {
	sh := New()
	state := State{}
	action, err := sh.Execute(context.Background(), &state, replx.CommandInput{Command: "sleep 1ms"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := action.(replx.CommandOutput)
	if len(out.Stdout) != 1 || out.Stdout[0] != "slept 1ms" {
		t.Fatalf("expected sleep report, got %+v", out.Stdout)
	}
}

func TestExecuteSleepHonorsCancellation(t *testing.T) {
	sh := New()
	state := State{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_, err := sh.Execute(ctx, &state, replx.CommandInput{Command: "sleep 10s"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("expected prompt return after cancellation")
	}
}

func TestExecuteQR(t *testing.T) {
	sh := New()
	state := State{}
	action, err := sh.Execute(context.Background(), &state, replx.CommandInput{Command: "qr hello"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := action.(replx.CommandOutput)
	if len(out.Stdout) == 0 {
		t.Fatalf("expected qr output lines")
	}
	if _, err := sh.Execute(context.Background(), &state, replx.CommandInput{Command: "qr"}); err == nil {
		t.Fatalf("expected usage error for bare qr")
	}
}

func TestExecuteClearAndExit(t *testing.T) {
	sh := New()
	state := State{}
	action, err := sh.Execute(context.Background(), &state, replx.CommandInput{Command: "clear"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := action.(replx.Clear); !ok {
		t.Fatalf("expected clear action, got %T", action)
	}
	action, err = sh.Execute(context.Background(), &state, replx.CommandInput{Command: "exit"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := action.(replx.Exit); !ok {
		t.Fatalf("expected exit action, got %T", action)
	}
}

func TestCompleteFirstTokenOnly(t *testing.T) {
	sh := New()
	state := State{}
	comp, err := sh.Complete(&state, "e")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(comp.Candidates) != 2 || comp.Candidates[0] != "echo" || comp.Candidates[1] != "exit" {
		t.Fatalf("expected echo and exit, got %+v", comp.Candidates)
	}
	comp, _ = sh.Complete(&state, "")
	if len(comp.Candidates) != len(commandNames) {
		t.Fatalf("expected all commands on empty line, got %+v", comp.Candidates)
	}
	comp, _ = sh.Complete(&state, "echo h")
	if len(comp.Candidates) != 0 {
		t.Fatalf("expected no candidates past the first token, got %+v", comp.Candidates)
	}
}

func TestCompleteKeepsLeadingWhitespace(t *testing.T) {
	sh := New()
	state := State{}
	comp, err := sh.Complete(&state, "  sl")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if comp.Prefix != "  " {
		t.Fatalf("expected leading whitespace prefix, got %q", comp.Prefix)
	}
	if len(comp.Candidates) != 1 || comp.Candidates[0] != "sleep" {
		t.Fatalf("expected sleep candidate, got %+v", comp.Candidates)
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := parseDuration("250ms"); err != nil || d != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v %v", d, err)
	}
	if d, err := parseDuration("2"); err != nil || d != 2*time.Second {
		t.Fatalf("expected bare seconds, got %v %v", d, err)
	}
	if _, err := parseDuration("soon"); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
