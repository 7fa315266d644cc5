package logx

import (
	"context"
	"io"

	"pkt.systems/pslog"
	"pkt.systems/replx/internal/appconfig"
)

type contextKey int

const (
	userKey contextKey = iota
	sessionKey
)

// New builds a logger from the logging configuration, writing to w.
func New(cfg appconfig.LoggingConfig, w io.Writer) pslog.Logger {
	opts := pslog.Options{Mode: pslog.ModeConsole, MinLevel: pslog.InfoLevel}
	if cfg.Mode == "structured" {
		opts.Mode = pslog.ModeStructured
	}
	switch cfg.Level {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	}
	return pslog.NewWithOptions(w, opts)
}

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithUser annotates the logger with the username if present.
func WithUser(ctx context.Context, user string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if user != "" {
		if current, ok := ctx.Value(userKey).(string); ok && current == user {
			return log
		}
		log = log.With("user", user)
	}
	return log
}

// WithUserSession annotates the logger with user and session identifiers.
func WithUserSession(ctx context.Context, user, session string) pslog.Logger {
	log := WithUser(ctx, user)
	if session != "" {
		if current, ok := ctx.Value(sessionKey).(string); ok && current == session {
			return log
		}
		log = log.With("session", session)
	}
	return log
}

// ContextWithUser stores the user marker on the context for log de-duplication.
func ContextWithUser(ctx context.Context, user string) context.Context {
	if ctx == nil || user == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, user)
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, session string) context.Context {
	if ctx == nil || session == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, session)
}

// ContextWithUserLogger attaches the logger and user marker to the context.
func ContextWithUserLogger(ctx context.Context, log pslog.Logger, user string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithUser(ctx, user)
}

// ContextWithUserSessionLogger attaches the logger and user/session markers to the context.
func ContextWithUserSessionLogger(ctx context.Context, log pslog.Logger, user, session string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSession(ContextWithUser(ctx, user), session)
}
