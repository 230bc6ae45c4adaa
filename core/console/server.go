// Package console serves interactive interpreter sessions over SSH. Every
// connection gets its own Shell sharing the command table and environment.
package console

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/josephlewis42/iocsh/core/config"
	"github.com/josephlewis42/iocsh/core/histstore"
	"github.com/josephlewis42/iocsh/core/logger"
	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/josephlewis42/iocsh/core/ttylog"
	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/juju/ratelimit"
	"github.com/spf13/afero"
	gossh "golang.org/x/crypto/ssh"
)

// Options configures a Server.
type Options struct {
	Config *config.Configuration
	Table  *shell.Table
	Env    vos.VEnv
	Fs     afero.Fs
	// Dir is the working directory sessions start in.
	Dir string
	// Events receives the structured event log.
	Events *logger.Logger
	// History is shared by every session, optional.
	History *histstore.Store
	// Logger receives server diagnostics.
	Logger *log.Logger
}

// Server is the SSH console.
type Server struct {
	opts      Options
	events    *logger.Logger
	logger    *log.Logger
	sshServer *ssh.Server
}

// New creates a server listening on the configured console port.
func New(opts Options) (*Server, error) {
	server := &Server{
		opts:   opts,
		events: opts.Events,
		logger: opts.Logger,
	}
	if server.events == nil {
		server.events = logger.Discard()
	}
	if server.logger == nil {
		server.logger = log.New(io.Discard, "", 0)
	}

	server.sshServer = &ssh.Server{
		Addr: fmt.Sprintf(":%d", opts.Config.Console.Port),
		Handler: func(s ssh.Session) {
			if err := server.HandleConnection(s); err != nil {
				server.logger.Printf("Session error: %v", err)
			}
		},
		PasswordHandler: server.checkPassword,
	}

	keyPem, err := opts.Config.PrivateKeyPem()
	if err != nil {
		return nil, fmt.Errorf("reading host key: %w", err)
	}
	signer, err := gossh.ParsePrivateKey(keyPem)
	if err != nil {
		return nil, fmt.Errorf("parsing host key: %w", err)
	}
	server.sshServer.AddHostKey(signer)
	server.logger.Printf("- Host key fingerprint: %s\n", gossh.FingerprintSHA256(signer.PublicKey()))

	return server, nil
}

func (srv *Server) checkPassword(ctx ssh.Context, password string) bool {
	accepted := false
	for _, candidate := range srv.opts.Config.GetPasswords(ctx.User()) {
		if subtle.ConstantTimeCompare([]byte(password), []byte(candidate)) == 1 {
			accepted = true
		}
	}

	srv.events.Sessionless().LoginAttempt(ctx.User(), ctx.RemoteAddr().String(), accepted)
	return accepted
}

// HandleConnection runs one console session. A session with a command runs
// it and exits, otherwise the interactive console is started.
func (srv *Server) HandleConnection(s ssh.Session) error {
	events := srv.events.NewSession()
	events.SessionStart(s.RemoteAddr().String())

	err := srv.handle(s, events)
	events.SessionEnd(err)

	code := 0
	if err != nil {
		code = 1
	}
	return s.Exit(code)
}

func (srv *Server) handle(s ssh.Session, events *logger.SessionLogger) error {
	cfg := srv.opts.Config

	var stdin io.Reader = s
	if rate := cfg.Console.MaxInputRate; rate > 0 {
		stdin = ratelimit.Reader(s, ratelimit.NewBucketWithRate(float64(rate), rate))
	}

	opts := shell.Options{
		Name:    events.SessionID(),
		Table:   srv.opts.Table,
		Env:     srv.opts.Env,
		Fs:      NewSessionFs(srv.opts.Fs, events, cfg.Console.ReadOnly),
		Dir:     srv.opts.Dir,
		Stdin:   stdin,
		Stdout:  s,
		Stderr:  s.Stderr(),
		Events:  events,
		History: srv.opts.History,
		Color:   cfg.Color,
	}

	if raw := s.RawCommand(); raw != "" {
		return shell.New(opts).Run(s.Context(), raw, "")
	}

	ptyInfo, winch, isPTY := s.Pty()
	width := int32(ptyInfo.Window.Width)
	if isPTY {
		go func() {
			for window := range winch {
				atomic.StoreInt32(&width, int32(window.Width))
			}
		}()
	}

	recorder, closeRecording, err := srv.record(stdin, s, s.Stderr(), events)
	if err != nil {
		return err
	}
	defer closeRecording()
	defer recorder.Close()

	opts.Stdin = recorder.Stdin()
	opts.Stdout = recorder.Stdout()
	opts.Stderr = recorder.Stderr()

	if isPTY {
		opts.Console = shell.ReadlineConsole(
			cfg.HistoryLimit,
			func() int { return int(atomic.LoadInt32(&width)) },
			func() bool { return true },
			srv.logger,
		)
	}

	fmt.Fprint(opts.Stdout, cfg.Console.Banner)

	return shell.New(opts).Load(s.Context(), shell.ConsoleName, "")
}

// record tees the session streams into a new recording file.
func (srv *Server) record(stdin io.Reader, stdout, stderr io.Writer, events *logger.SessionLogger) (*ttylog.Recorder, func() error, error) {
	format := ttylog.Format(srv.opts.Config.Console.RecordingFormat)
	name := fmt.Sprintf("%s-%s.%s", time.Now().UTC().Format("20060102T150405Z"), events.SessionID(), format.FileExt())

	fd, err := srv.opts.Config.CreateRecording(name)
	if err != nil {
		return nil, nil, fmt.Errorf("creating recording: %w", err)
	}
	events.OpenTTYLog(name)

	sink, err := ttylog.NewLogSink(format, fd)
	if err != nil {
		fd.Close()
		return nil, nil, err
	}

	return ttylog.NewRecorder(stdin, stdout, stderr, sink, srv.logger), fd.Close, nil
}

// ListenAndServe listens on the configured port.
func (srv *Server) ListenAndServe() error {
	srv.logger.Printf("- Starting SSH console on %s\n", srv.sshServer.Addr)
	return srv.sshServer.ListenAndServe()
}

// Serve accepts connections on l.
func (srv *Server) Serve(l net.Listener) error {
	return srv.sshServer.Serve(l)
}

// Shutdown gracefully stops the server.
func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.sshServer.Shutdown(ctx)
}
