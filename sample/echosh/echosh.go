package echosh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mdp/qrterminal/v3"

	"pkt.systems/pslog"
	"pkt.systems/replx"
)

// commandNames drives help and completion, in display order.
var commandNames = []string{"cat", "clear", "echo", "exit", "help", "qr", "sleep"}

// State is the per-session shell state: who is connected and how many
// commands they have run. The prompt renders both.
type State struct {
	User     string
	Commands int
}

// Shell is the reference executor: a handful of echo-style commands
// covering stdin collection, cancellable long work, and QR output.
type Shell struct{}

// New returns the shell executor. One instance serves one session.
func New() *Shell { return &Shell{} }

// Factory builds a session factory for frontends.
func Factory(user string) replx.Factory[State] {
	return func() (replx.Executor[State], State, error) {
		return New(), State{User: user}, nil
	}
}

// Prompt shows the user and the number of executed commands.
func (s *Shell) Prompt(state *State) string {
	name := state.User
	if name == "" {
		name = "echosh"
	}
	return fmt.Sprintf("%s:%d> ", name, state.Commands)
}

// Prepare trims the submission; cat collects stdin before executing.
func (s *Shell) Prepare(raw string) replx.Prepare {
	trimmed := strings.TrimSpace(raw)
	name, _, _ := splitCommand(trimmed)
	return replx.Prepare{Command: trimmed, StdinRequired: name == "cat"}
}

// Complete offers prefix completion over command names for the first
// token on the line.
func (s *Shell) Complete(state *State, partial string) (replx.Completion, error) {
	token := strings.TrimLeft(partial, " \t")
	lead := partial[:len(partial)-len(token)]
	if strings.ContainsAny(token, " \t") {
		return replx.Completion{}, nil
	}
	var candidates []string
	for _, name := range commandNames {
		if strings.HasPrefix(name, token) {
			candidates = append(candidates, name)
		}
	}
	return replx.Completion{Prefix: lead, Candidates: candidates}, nil
}

// Execute dispatches one prepared command.
func (s *Shell) Execute(ctx context.Context, state *State, in replx.CommandInput) (replx.OutputAction, error) {
	state.Commands++
	name, args, rest := splitCommand(in.Command)
	log := pslog.Ctx(ctx).With("command", name)
	log.Debug("shell command", "args", len(args))
	switch name {
	case "echo":
		return s.output(in, []string{rest}, nil), nil
	case "cat":
		return s.output(in, in.Stdin, nil), nil
	case "sleep":
		return s.handleSleep(ctx, in, args)
	case "qr":
		return s.handleQR(in, rest)
	case "clear":
		return replx.Clear{}, nil
	case "exit", "quit":
		return replx.Exit{}, nil
	case "help":
		return s.output(in, helpLines(), nil), nil
	default:
		return nil, fmt.Errorf("unknown command: %s", name)
	}
}

func (s *Shell) handleSleep(ctx context.Context, in replx.CommandInput, args []string) (replx.OutputAction, error) {
	if len(args) != 1 {
		return nil, errors.New("usage: sleep <duration>")
	}
	d, err := parseDuration(args[0])
	if err != nil {
		return nil, err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return s.output(in, []string{"slept " + d.String()}, nil), nil
}

func (s *Shell) handleQR(in replx.CommandInput, text string) (replx.OutputAction, error) {
	if text == "" {
		return nil, errors.New("usage: qr <text>")
	}
	var buf bytes.Buffer
	qrterminal.GenerateHalfBlock(text, qrterminal.L, &buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	return s.output(in, lines, nil), nil
}

func (s *Shell) output(in replx.CommandInput, stdout, stderr []string) replx.CommandOutput {
	return replx.CommandOutput{
		Prompt:  in.Prompt,
		Command: in.Command,
		Stdin:   in.Stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

func helpLines() []string {
	return []string{
		"commands:",
		"  echo [text]       print text",
		"  cat               collect lines until Ctrl+D and print them back",
		"  sleep <duration>  wait, interruptible with Ctrl+C",
		"  qr <text>         render text as a QR code",
		"  clear             wipe the scrollback",
		"  help              this text",
		"  exit              end the session",
	}
}

// splitCommand breaks a trimmed submission into its name, fields, and
// the raw remainder after the name with inner spacing preserved.
func splitCommand(input string) (string, []string, string) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", nil, ""
	}
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))
	return fields[0], fields[1:], rest
}

func parseDuration(arg string) (time.Duration, error) {
	if d, err := time.ParseDuration(arg); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", arg)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
