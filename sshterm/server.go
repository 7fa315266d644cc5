package sshterm

import (
	"context"
	"errors"
	"io"
	"net"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/replx"
	"pkt.systems/replx/internal/histfile"
	"pkt.systems/replx/internal/logx"
)

// SessionFactory builds the executor, initial state, and extra session
// options for one authenticated user. It is invoked once per accepted
// connection; an error refuses the session.
type SessionFactory[C any] func(ctx context.Context, user string) (replx.Executor[C], C, []replx.Option, error)

// AuthStore validates SSH login credentials. Logins present a known
// public key first and then answer a keyboard-interactive TOTP
// challenge.
type AuthStore interface {
	HasPublicKey(username string, key ssh.PublicKey) (bool, error)
	ValidateTOTP(username, code string) error
}

// Server exposes shell sessions over SSH. Each accepted connection
// runs its own session against a fresh executor from Factory. A nil
// AuthStore accepts any username; that mode is for local experiments
// only.
type Server[C any] struct {
	Addr         string
	HostKeyPath  string
	Listener     net.Listener
	Factory      SessionFactory[C]
	AuthStore    AuthStore
	HistoryDir   string
	HistoryLimit int
	Options      []replx.Option
	logger       pslog.Logger
}

type authContextKey string

const loginPubKeyOK authContextKey = "login-pubkey-ok"

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server[C]) ListenAndServe(ctx context.Context) error {
	if s.Factory == nil {
		return replx.ErrNilFactory
	}
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}

	signer, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:    s.Addr,
		Handler: s.handleSession,
	}
	if s.AuthStore != nil {
		server.PublicKeyHandler = s.handlePublicKey
		server.KeyboardInteractiveHandler = s.handleKeyboardInteractive
	} else {
		s.logger.Warn("ssh auth disabled, accepting any username")
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server[C]) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	fingerprint := ssh.FingerprintSHA256(key)
	remote := remoteAddr(ctx)
	user := ctx.User()
	if user == "" {
		log.Warn("ssh pubkey rejected", "reason", "missing user", "remote", remote, "fingerprint", fingerprint)
		return false
	}
	log = log.With("user", user, "remote", remote, "fingerprint", fingerprint)
	ok, err := s.AuthStore.HasPublicKey(user, key)
	if err != nil {
		log.Warn("ssh pubkey rejected", "err", err)
		return false
	}
	if !ok {
		log.Warn("ssh pubkey rejected", "reason", "no matching key")
		return false
	}
	ctx.SetValue(loginPubKeyOK, true)
	log.Info("ssh pubkey accepted")
	return false
}

func (s *Server[C]) handleKeyboardInteractive(ctx gliderssh.Context, challenger ssh.KeyboardInteractiveChallenge) bool {
	if ctx.Value(loginPubKeyOK) != true {
		return false
	}
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	user := ctx.User()
	if user != "" {
		log = log.With("user", user, "remote", remoteAddr(ctx))
	}
	answers, err := challenger(user, "", []string{"Verification code: "}, []bool{false})
	if err != nil {
		log.Warn("ssh totp rejected", "reason", "challenge failed", "err", err)
		return false
	}
	if len(answers) != 1 {
		log.Warn("ssh totp rejected", "reason", "invalid answer count", "count", len(answers))
		return false
	}
	if err := s.AuthStore.ValidateTOTP(user, answers[0]); err != nil {
		log.Warn("ssh totp rejected", "reason", "invalid code", "err", err)
		return false
	}
	log.Info("ssh totp accepted")
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server[C]) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	user := sess.User()
	if user == "" {
		log.Info("ssh session rejected", "reason", "missing user", "remote", sess.RemoteAddr().String())
		_, _ = io.WriteString(sess, "missing user\n")
		return
	}
	remote := sess.RemoteAddr().String()
	sid := sess.Context().SessionID()
	log = log.With("user", user, "remote", remote)
	if sid != "" {
		log = log.With("session", sid)
	}
	ctx := logx.ContextWithUserSessionLogger(sess.Context(), log, user, sid)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		return
	}

	exec, state, extra, err := s.Factory(ctx, user)
	if err != nil {
		log.Warn("ssh session rejected", "reason", "factory failed", "err", err)
		_, _ = io.WriteString(sess, "unable to start session\n")
		return
	}

	opts := make([]replx.Option, 0, len(s.Options)+len(extra)+1)
	opts = append(opts, s.Options...)
	if s.HistoryDir != "" {
		store, err := histfile.NewWithLogger(histfile.PathFor(s.HistoryDir, user), s.HistoryLimit, log)
		if err != nil {
			log.Warn("history disabled", "err", err)
		} else {
			opts = append(opts, replx.WithHistoryStore(store))
		}
	}
	opts = append(opts, extra...)

	term := replx.Terminal{
		Input:  sess,
		Output: sess,
		Width:  pty.Window.Width,
		Height: pty.Window.Height,
		Resize: forwardWindowChanges(winCh),
	}
	session, err := replx.New(exec, state, term, opts...)
	if err != nil {
		log.Warn("ssh session rejected", "reason", "session setup failed", "err", err)
		_, _ = io.WriteString(sess, "unable to start session\n")
		return
	}

	log.Info("ssh session opened", "term", pty.Term)
	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Debug("ssh session ended with error", "err", err)
	}
	log.Info("ssh session closed", "term", pty.Term)
}

// forwardWindowChanges adapts PTY window updates to session resize
// events. Sends never block; a stale pending size is dropped when a
// newer one arrives.
func forwardWindowChanges(winCh <-chan gliderssh.Window) <-chan replx.WindowSize {
	resize := make(chan replx.WindowSize, 1)
	go func() {
		defer close(resize)
		for win := range winCh {
			select {
			case <-resize:
			default:
			}
			resize <- replx.WindowSize{Width: win.Width, Height: win.Height}
		}
	}()
	return resize
}
