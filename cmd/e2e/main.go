package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
	"livebus/internal/livebus/bus"
	"livebus/internal/livebus/metrics"
	"livebus/internal/livebus/tracing"
	"livebus/internal/mainloop"
)

type Config struct {
	BusName               string        `env:"BUS_NAME" envDefault:"notifications"`
	Workers               int           `env:"WORKERS" envDefault:"3"`
	EventsPerWorker       int           `env:"EVENTS_PER_WORKER" envDefault:"20"`
	PostInterval          time.Duration `env:"POST_INTERVAL" envDefault:"25ms"`
	QueueDepth            int           `env:"QUEUE_DEPTH" envDefault:"256"`
	StageDelay            time.Duration `env:"STAGE_DELAY" envDefault:"500ms"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPort           int           `env:"METRICS_PORT" envDefault:"9090"`
	MetricsTimeout        time.Duration `env:"METRICS_TIMEOUT" envDefault:"30s"`
	TracingServiceName    string        `env:"TRACING_SERVICE_NAME" envDefault:"livebus-e2e"`
	TracingServiceVersion string        `env:"TRACING_SERVICE_VERSION" envDefault:"1.0.0"`
	JaegerEndpoint        string        `env:"JAEGER_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate     float64       `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	config := zap.NewProductionConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metricsRegistry := metrics.NewRegistry()
	metricsRegistry.SetSystemInfo("e2e-test", time.Now().Format(time.RFC3339))

	metricsServer := metrics.NewServer(
		metrics.ServerConfig{
			Port:    cfg.MetricsPort,
			Timeout: cfg.MetricsTimeout,
		},
		metricsRegistry,
		logger,
	)

	go func() {
		if err := metricsServer.Start(context.Background()); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("metrics server started",
		zap.String("endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.MetricsPort)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.MetricsPort)),
	)

	tracingConfig := tracing.Config{
		ServiceName:    cfg.TracingServiceName,
		ServiceVersion: cfg.TracingServiceVersion,
		JaegerEndpoint: cfg.JaegerEndpoint,
		SampleRate:     cfg.TracingSampleRate,
	}
	tracer, tracingCleanup, err := tracing.NewTracer(tracingConfig)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingCleanup(shutdownCtx); err != nil {
			logger.Error("failed to cleanup tracing", zap.Error(err))
		}
	}()

	logger.Info("tracing initialized",
		zap.String("service", cfg.TracingServiceName),
		zap.String("jaeger_endpoint", cfg.JaegerEndpoint),
		zap.Float64("sample_rate", cfg.TracingSampleRate),
	)

	loop, err := mainloop.NewLoop(logger, cfg.QueueDepth)
	if err != nil {
		log.Fatalf("failed to create main loop: %v", err)
	}

	core, err := bus.New[string](cfg.BusName, loop, logger,
		bus.WithOnActive(func() {
			logger.Info("bus became active")
		}),
		bus.WithOnInactive(func() {
			logger.Info("bus became inactive")
		}),
	)
	if err != nil {
		log.Fatalf("failed to create bus: %v", err)
	}
	metricsBus := bus.NewMetricsBus[string](cfg.BusName, core, metricsRegistry)
	notifications := bus.NewTracedBus[string](cfg.BusName, metricsBus, tracer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("main loop failed: %w", err)
		}
		return nil
	})

	// The screen observing from the start. Its lifecycle stays at Created
	// for the first stage, so every event posted by the workers queues up.
	screen := lifecycle.NewHolder()
	banner := livebus.NewObserver(func(msg string) {
		logger.Info("banner shown", zap.String("message", msg))
	})
	loop.PostToMain(func() {
		screen.MarkState(lifecycle.Created)
		if err := notifications.Observe(screen, banner); err != nil {
			logger.Error("failed to observe", zap.Error(err))
		}
	})

	// An always-active audit trail observer.
	audit := livebus.NewObserver(func(msg string) {
		logger.Debug("audit", zap.String("message", msg))
	})
	loop.PostToMain(func() {
		if err := notifications.ObserveForever(audit); err != nil {
			logger.Error("failed to observe forever", zap.Error(err))
		}
	})

	// Background workers posting status messages from off the main
	// context, like a view model reporting api results.
	for worker := range cfg.Workers {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.PostInterval)
			defer ticker.Stop()

			for i := 0; i < cfg.EventsPerWorker; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					notifications.Post(fmt.Sprintf("worker %d: status %d", worker, i))
				}
			}
			return nil
		})
	}

	// Stage two: start the screen, which drains everything queued while it
	// was merely created.
	time.AfterFunc(cfg.StageDelay, func() {
		loop.PostToMain(func() {
			logger.Info("starting screen",
				zap.Bool("active_observers", notifications.HasActiveObservers()),
			)
			screen.MarkState(lifecycle.Started)
		})
	})

	// Stage three: destroy the screen; its observer is removed
	// automatically, the audit observer keeps going.
	time.AfterFunc(2*cfg.StageDelay, func() {
		loop.PostToMain(func() {
			screen.MarkState(lifecycle.Destroyed)
			logger.Info("screen destroyed",
				zap.Bool("has_observers", notifications.HasObservers()),
			)
		})
	})

	// Wind down once the workers have posted everything and the final
	// stage had a chance to run.
	time.AfterFunc(3*cfg.StageDelay, func() {
		loop.PostToMain(func() {
			if err := notifications.RemoveObserver(audit); err != nil {
				logger.Error("failed to remove audit observer", zap.Error(err))
			}
			logger.Info("scenario complete",
				zap.Int("pending_events", core.PendingEvents()),
				zap.Int("observers", core.Observers()),
			)
			cancel()
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("error in goroutine", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop metrics server", zap.Error(err))
	}

	fmt.Printf("\n\n TEST COMPLETE IN %.2f seconds\n", time.Since(now).Seconds())
}
