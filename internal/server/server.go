// Package server provides the service lifecycle runner: signal handling,
// config loading, observability init, the countdown timer, and the HTTP
// surface with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpedrosa/launchclock/internal/config"
	"github.com/mpedrosa/launchclock/internal/countdown"
	"github.com/mpedrosa/launchclock/internal/display"
	"github.com/mpedrosa/launchclock/internal/domain"
	"github.com/mpedrosa/launchclock/internal/hub"
	"github.com/mpedrosa/launchclock/internal/observability"
	"github.com/mpedrosa/launchclock/internal/presence"
	redisclient "github.com/mpedrosa/launchclock/internal/redis"
	"github.com/mpedrosa/launchclock/pkg/protocol"
)

// Params configures the service lifecycle runner.
type Params struct {
	// Name identifies the service in logs, traces, and health responses.
	Name string
}

// Run executes the full service lifecycle: signal handling, config loading,
// observability initialization, countdown start, HTTP server with health
// checks, and graceful shutdown. If ln is non-nil, it is used instead of
// creating a new listener from config (enables port-0 testing).
func Run(ctx context.Context, p Params, ln net.Listener) error {
	// Signal-based cancellation: ctx.Done() closes on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Once the errgroup is serving, its shutdown goroutine owns teardown.
	// Until then a startup failure must release whatever was acquired,
	// including an injected listener.
	var (
		logger          *slog.Logger
		tracerProvider  *observability.TracerProvider
		metricsProvider *observability.MetricsProvider
		streamHub       *hub.Hub
		redisClient     *redisclient.Client
		handle          *countdown.Handle
	)
	serving := false
	defer func() {
		if serving {
			return
		}
		if handle != nil {
			handle.Stop()
		}
		if streamHub != nil {
			streamHub.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if ln != nil {
			_ = ln.Close()
		}
		otelCtx, otelCancel := context.WithTimeout(context.Background(), domain.ShutdownOTELTimeout)
		defer otelCancel()
		if metricsProvider != nil {
			if shutdownErr := metricsProvider.Shutdown(otelCtx); shutdownErr != nil {
				logger.Error("failed to shutdown metrics", slog.String("error", shutdownErr.Error()))
			}
		}
		if tracerProvider != nil {
			if shutdownErr := tracerProvider.Shutdown(otelCtx); shutdownErr != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", shutdownErr.Error()))
			}
		}
	}()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize structured logging with secret redaction
	logger = observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: p.Name,
		Environment: cfg.Environment,
	})

	// --- Startup order: tracer -> metrics -> countdown -> HTTP server ---

	tracerProvider, err = observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    p.Name,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}

	metricsProvider, err = observability.InitMetrics(ctx, observability.MetricsConfig{
		ServiceName:    p.Name,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	clock := domain.RealClock{}
	deadline, err := cfg.Countdown.ResolveDeadline(clock)
	if err != nil {
		return fmt.Errorf("resolve countdown target: %w", err)
	}

	state := newLaunchState(deadline, cfg.Countdown.Headline, domain.Until(deadline, clock.Now()))
	streamHub = hub.New(logger)

	// Viewer presence is optional; an empty Redis address disables it.
	var tracker *presence.Tracker
	if cfg.Redis.Addr != "" {
		redisClient = redisclient.NewClient(redisclient.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			ReadTimeout:  cfg.Redis.Timeout,
			WriteTimeout: cfg.Redis.Timeout,
		})
		tracker = presence.NewTracker(redisClient.RDB, clock)
	}

	handle, err = countdown.Start(ctx, countdown.Config{
		Deadline: deadline,
		Interval: cfg.Countdown.TickInterval,
		Clock:    clock,
		Logger:   logger,
		OnTick: func(rem domain.Remaining) {
			state.observe(rem)
			frame, frameErr := protocol.NewFrame(protocol.FrameTypeTick, display.TickPayload(rem))
			if frameErr != nil {
				logger.Error("build tick frame", slog.String("error", frameErr.Error()))
				return
			}
			streamHub.Broadcast(frame)
		},
		OnExpire: func() {
			state.launch()
			frame, frameErr := protocol.NewFrame(protocol.FrameTypeExpired, protocol.Expired{
				Headline: cfg.Countdown.Headline,
			})
			if frameErr == nil {
				streamHub.Broadcast(frame)
			}
			// Terminal: subscribers drain the expired frame and disconnect.
			streamHub.Close()
		},
	})
	if err != nil {
		return fmt.Errorf("start countdown: %w", err)
	}

	logger.Info("countdown armed",
		slog.Time("deadline", deadline),
		slog.Duration("tick_interval", cfg.Countdown.TickInterval),
	)

	// Health check shutdown coordination via atomic flag.
	var shuttingDown atomic.Bool

	h := &handlers{
		state:        state,
		hub:          streamHub,
		presence:     tracker,
		tickInterval: cfg.Countdown.TickInterval,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if shuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"shutting_down","service":%q}`, p.Name)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":%q}`, p.Name)
	})
	mux.HandleFunc("GET /v1/countdown", h.handleSnapshot)
	mux.HandleFunc("GET /v1/countdown/stream", h.handleStream)

	// Bind listener (use injected listener or create from config).
	if ln == nil {
		ln, err = (&net.ListenConfig{}).Listen(ctx, "tcp", fmt.Sprintf(":%d", cfg.Server.HTTPPort))
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	server := &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: the stream endpoint holds its response open for
		// the life of the subscription.
	}

	// --- Structured concurrency via errgroup ---
	g, ctx := errgroup.WithContext(ctx)

	// Goroutine 1: Serve HTTP
	g.Go(func() error {
		logger.Info("starting HTTP server",
			slog.String("addr", ln.Addr().String()),
			slog.String("environment", cfg.Environment),
		)
		if serveErr := server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})

	// Goroutine 2: Shutdown trigger — waits for context cancellation, then
	// drains. Shutdown order is the explicit reverse of startup: countdown
	// and stream first, then HTTP, then metrics and tracer.
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("received shutdown signal, starting graceful shutdown")

		// 1. Mark shutting down — health checks return 503
		shuttingDown.Store(true)

		// 2. Drain delay — let load balancer propagate endpoint removal
		time.Sleep(domain.ShutdownDrainDelay)

		// 3. Stop ticking and release stream subscribers so their handlers
		// return; idempotent if the countdown already expired.
		handle.Stop()
		streamHub.Close()

		// 4. Drain HTTP server
		httpCtx, httpCancel := context.WithTimeout(context.Background(), domain.ShutdownHTTPTimeout)
		defer httpCancel()
		if shutdownErr := server.Shutdown(httpCtx); shutdownErr != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", shutdownErr.Error()))
		}

		// 5. Close infrastructure clients
		if redisClient != nil {
			if closeErr := redisClient.Close(); closeErr != nil {
				logger.Error("redis close error", slog.String("error", closeErr.Error()))
			}
		}

		// 6. Flush OTEL (reverse: metrics first, then tracer)
		otelCtx, otelCancel := context.WithTimeout(context.Background(), domain.ShutdownOTELTimeout)
		defer otelCancel()
		if shutdownErr := metricsProvider.Shutdown(otelCtx); shutdownErr != nil {
			logger.Error("failed to shutdown metrics", slog.String("error", shutdownErr.Error()))
		}
		if shutdownErr := tracerProvider.Shutdown(otelCtx); shutdownErr != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", shutdownErr.Error()))
		}

		logger.Info("shutdown complete")
		return nil
	})

	serving = true
	return g.Wait()
}
