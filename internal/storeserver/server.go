package storeserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/muurk/retype/internal/bridge"
	"github.com/muurk/retype/internal/discovery"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/store"
	"github.com/muurk/retype/internal/version"
)

// shutdownTimeout bounds the graceful stop after a signal.
const shutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	LogLevel string

	// Backend holds the components. The caller closes it.
	Backend store.Backend
	// BackendName is reported by the health check and the mDNS TXT record.
	BackendName string

	// Region is the CSS selector bridge sessions track. Empty tracks the
	// whole component.
	Region string
	// Stylesheet is linked from preview pages, e.g. a utility-class build.
	Stylesheet string
	// AllowAnyOrigin accepts bridge connections from pages served elsewhere.
	AllowAnyOrigin bool

	// Advertise registers the server over mDNS as Instance.
	Advertise bool
	Instance  string
}

// Server serves the component store API, preview pages and the browser
// editing bridge.
type Server struct {
	config   *Config
	router   chi.Router
	bridge   *bridge.Handler
	policy   *bluemonday.Policy
	http     *http.Server
	listener net.Listener
	ad       *discovery.Advertisement
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if config.Backend == nil {
		return nil, errors.New("a store backend is required")
	}
	if config.BackendName == "" {
		config.BackendName = "custom"
	}

	s := &Server{
		config: config,
		policy: newPolicy(),
	}

	bcfg := bridge.Config{
		Store:    store.NewLocal(config.Backend),
		Region:   config.Region,
		Sanitize: s.policy.Sanitize,
	}
	if config.AllowAnyOrigin {
		bcfg.CheckOrigin = func(*http.Request) bool { return true }
	}
	s.bridge = bridge.NewHandler(bcfg)
	s.router = s.routes()
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	logging.Info("Server listening for connections", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve accepts requests until Shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Start listens, optionally advertises over mDNS, and blocks until
// SIGINT/SIGTERM or a serve error.
func (s *Server) Start() error {
	logging.Info("Starting retype store server",
		zap.String("host", s.config.Host),
		zap.Int("port", s.config.Port),
		zap.String("backend", s.config.BackendName),
		zap.String("version", version.Version),
	)

	if err := s.Listen(); err != nil {
		return err
	}

	if s.config.Advertise {
		port := s.listener.Addr().(*net.TCPAddr).Port
		ad, err := discovery.Advertise(s.config.Instance, port, version.Version, s.config.BackendName)
		if err != nil {
			logging.Warn("mDNS advertisement failed, continuing without it", zap.Error(err))
		} else {
			s.ad = ad
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Shutdown withdraws the advertisement, stops accepting requests and
// closes every bridge connection.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.ad.Shutdown()

	if err := s.http.Shutdown(ctx); err != nil {
		logging.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	if err := s.bridge.Close(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Int("bridge_connections", s.bridge.Active()))
	} else {
		logging.Info("All connections closed gracefully")
	}

	logging.Sync()
	return nil
}

// ActiveBridges returns the number of open editing connections.
func (s *Server) ActiveBridges() int {
	return s.bridge.Active()
}
