package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/neuroflap/internal/config"
	"github.com/vovakirdan/neuroflap/internal/core"
	"github.com/vovakirdan/neuroflap/internal/storage"
)

// SSHServerConfig holds configuration for the spectator server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.neuroflap/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Policy and Population describe what every session watches.
	Policy     string
	Population Population

	Sim      config.SimConfig
	TickRate int

	// BaseSeed seeds the first session; every later session adds one so
	// concurrent spectators watch different courses.
	BaseSeed int64

	// ShutdownGrace bounds how long Serve waits for sessions to drain.
	ShutdownGrace time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:       ":23234",
		IdleTimeout:   30 * time.Minute,
		Sim:           config.DefaultSimConfig(),
		TickRate:      30,
		ShutdownGrace: 10 * time.Second,
	}
}

// SSHServer serves one independent round per SSH session.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger

	sessions atomic.Int64 // sessions started so far
	active   atomic.Int64 // sessions currently connected
}

// NewSSHServer creates a new SSH server. store and logger may be nil.
func NewSSHServer(cfg SSHServerConfig, store *storage.Store, logger *log.Logger) (*SSHServer, error) {
	if cfg.Population == nil {
		return nil, errors.New("ssh: population is required")
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "neuroflap-ssh",
		})
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("ssh: resolve home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".neuroflap", "host_key")
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("ssh: create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("ssh: create server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a viewer with a fresh round for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("spectator without pty", "user", sshSession.User())
		return nil, nil
	}
	seed := s.nextSeed()

	model, err := NewModel(ViewerOptions{
		Policy:     s.config.Policy,
		Population: s.config.Population,
		Sim:        s.config.Sim,
		Runtime: core.RuntimeConfig{
			ScreenW:  pty.Window.Width,
			ScreenH:  pty.Window.Height,
			TickRate: s.config.TickRate,
			Seed:     seed,
		},
		Store:  s.store,
		Logger: s.logger.With("user", sshSession.User(), "seed", seed),
	})
	if err != nil {
		s.logger.Error("session round rejected", "user", sshSession.User(), "error", err)
		return nil, nil
	}

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// nextSeed hands out per-session seeds starting at BaseSeed.
func (s *SSHServer) nextSeed() int64 {
	return s.config.BaseSeed + s.sessions.Add(1) - 1
}

// loggingMiddleware tracks spectators and logs their connections.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		remote := sshSession.RemoteAddr().String()
		s.logger.Info("spectator joined", "user", sshSession.User(), "remote", remote, "active", s.active.Add(1))
		defer func() {
			s.logger.Info("spectator left", "user", sshSession.User(), "remote", remote, "active", s.active.Add(-1))
		}()
		next(sshSession)
	}
}

// Active returns the number of connected spectators.
func (s *SSHServer) Active() int {
	return int(s.active.Load())
}

// Serve accepts spectators until ctx is done, then drains sessions for at
// most ShutdownGrace.
func (s *SSHServer) Serve(ctx context.Context) error {
	s.logger.Info("spectator server listening", "address", s.config.Address, "policy", s.config.Policy)

	errCh := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if errors.Is(err, ssh.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("spectator server failed", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("draining spectators", "active", s.Active())
	grace := s.config.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ssh: shutdown: %w", err)
	}
	return <-errCh
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
