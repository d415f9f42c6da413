package daemon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/harun/weatherbot/internal/config"
	"github.com/harun/weatherbot/internal/logger"
	"github.com/harun/weatherbot/internal/observability"
	"github.com/harun/weatherbot/internal/tracing"
	"github.com/harun/weatherbot/pkg/agent"
	"github.com/harun/weatherbot/pkg/assistant"
	"github.com/harun/weatherbot/pkg/channels"
	"github.com/harun/weatherbot/pkg/gateway"
	"github.com/harun/weatherbot/pkg/session"
)

// Daemon owns the assistant and the channels that feed it
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	store           *session.Store
	assistant       *assistant.Assistant
	gatewayServer   *gateway.Server
	terminal        *channels.TerminalChannel
	channelRegistry *channels.Registry

	ctx    context.Context
	cancel context.CancelFunc

	startTime time.Time
	running   bool
	mu        sync.RWMutex

	tracer *tracing.Provider
}

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	providers  agent.ProviderCreator
	getenv     func(string) string
	httpClient *http.Client
	version    string
	in         io.Reader
	out        io.Writer
}

// WithProviders overrides how model clients are built.
func WithProviders(p agent.ProviderCreator) Option {
	return func(o *options) { o.providers = p }
}

// WithGetenv overrides the credential lookup.
func WithGetenv(getenv func(string) string) Option {
	return func(o *options) { o.getenv = getenv }
}

// WithHTTPClient sets the client used by the live weather tool.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithVersion sets the service version reported on traces.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithTerminal serves a single conversation over in/out instead of the
// WebSocket gateway.
func WithTerminal(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.in = in
		o.out = out
	}
}

// New creates a new daemon instance
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	o := &options{version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	observability.EnsureRegistered()

	d := &Daemon{
		config: cfg,
		logger: log,
		store:  session.NewStore(),
		tracer: tracing.NewProvider("weatherbot", o.version),
	}

	a, err := assistant.New(assistant.Options{
		Config:     cfg,
		Providers:  o.providers,
		Getenv:     o.getenv,
		HTTPClient: o.httpClient,
		Logger:     log.GetZerolog(),
	})
	if err != nil {
		d.shutdownTracing()
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}
	d.assistant = a
	d.channelRegistry = channels.NewRegistry(a)

	if o.in != nil {
		d.terminal = channels.NewTerminalChannel(o.in, o.out, d.store)
		if err := d.channelRegistry.Register(d.terminal); err != nil {
			d.shutdownTracing()
			return nil, fmt.Errorf("failed to register terminal channel: %w", err)
		}
	} else {
		srv, err := gateway.NewServer(gateway.Config{
			Host:            cfg.Gateway.Host,
			Port:            cfg.Gateway.Port,
			ShutdownTimeout: cfg.Gateway.ShutdownTimeout,
			Store:           d.store,
			Logger:          log.Component("gateway"),
		})
		if err != nil {
			d.shutdownTracing()
			return nil, fmt.Errorf("failed to create gateway server: %w", err)
		}
		d.gatewayServer = srv
		if err := d.channelRegistry.Register(srv); err != nil {
			d.shutdownTracing()
			return nil, fmt.Errorf("failed to register gateway channel: %w", err)
		}
	}

	return d, nil
}

// Start starts every registered channel
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	logger := d.logger.GetZerolog().With().Str("trace_id", tracing.NewTraceID()).Logger()
	logger.Info().
		Str("model", d.config.Model.Name).
		Str("provider", d.config.Model.Provider).
		Strs("tools", d.assistant.Tools()).
		Msg("Starting weatherbot")

	if err := d.channelRegistry.StartAll(d.ctx); err != nil {
		d.mu.Lock()
		d.running = false
		d.cancel()
		d.mu.Unlock()
		return fmt.Errorf("failed to start channels: %w", err)
	}

	event := logger.Info().Strs("channels", d.channelRegistry.Names())
	if d.gatewayServer != nil {
		event = event.Str("addr", d.gatewayServer.Addr())
	}
	event.Msg("Weatherbot started")

	return nil
}

// Stop stops the daemon gracefully
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info().Msg("Stopping weatherbot")

	timeout := d.config.Gateway.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stopErr error
	if err := d.channelRegistry.StopAll(ctx); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop channels")
		stopErr = err
	}
	d.cancel()

	d.shutdownTracing()

	d.logger.Info().Int("sessions", d.store.Count()).Msg("Weatherbot stopped")
	return stopErr
}

func (d *Daemon) shutdownTracing() {
	if err := d.tracer.Shutdown(context.Background()); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to shutdown tracing")
	}
	d.tracer = nil
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{
		Running:  d.running,
		Sessions: d.store.Count(),
	}

	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
		if d.gatewayServer != nil {
			status.Addr = d.gatewayServer.Addr()
		}
	}

	return status
}

// Done is closed when the terminal conversation ends. It never closes for a
// gateway daemon.
func (d *Daemon) Done() <-chan struct{} {
	if d.terminal == nil {
		return nil
	}
	return d.terminal.Done()
}

// Wait blocks until SIGINT/SIGTERM or the end of the terminal conversation,
// then stops the daemon.
func (d *Daemon) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		d.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	case <-d.Done():
	}

	if err := d.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop daemon")
		return err
	}
	if d.terminal != nil {
		return d.terminal.Err()
	}
	return nil
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}

// Store returns the session store shared by all channels.
func (d *Daemon) Store() *session.Store {
	return d.store
}

// Status holds daemon status information
type Status struct {
	Running   bool
	Uptime    time.Duration
	StartTime time.Time
	Addr      string
	Sessions  int
}
