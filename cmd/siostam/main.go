package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"siostam-backend/domain/graph"
	"siostam-backend/infrastructure/config"
	"siostam-backend/infrastructure/di"
	"siostam-backend/infrastructure/render"
	"siostam-backend/infrastructure/sources"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", envOr("SIOSTAM_CONFIG", "siostam.yaml"), "path to the configuration file")
	verbosity := flag.Int("v", 0, "log verbosity: 0 info, 1 debug")
	flag.Parse()

	// A .env file is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	logger, err := newLogger(*verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	var runErr error
	switch command := flag.Arg(0); command {
	case "init":
		runErr = runInit(logger)
	case "serve", "server":
		runErr = runServer(*configPath, logger)
	case "":
		runErr = runMapper(*configPath, logger)
	default:
		runErr = fmt.Errorf("unknown command %q", command)
	}

	if runErr != nil {
		logger.Error("Command failed", zap.Error(runErr))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// newLogger builds the process logger. Verbosity picks the default
// level, SIOSTAM_LOG_LEVEL overrides it, and
// SIOSTAM_ENVIRONMENT=production switches to JSON output.
func newLogger(verbosity int) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbosity > 0 {
		level = zapcore.DebugLevel
	}
	if v := os.Getenv("SIOSTAM_LOG_LEVEL"); v != "" {
		parsed, err := zapcore.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SIOSTAM_LOG_LEVEL %q: %w", v, err)
		}
		level = parsed
	}

	var cfg zap.Config
	if os.Getenv("SIOSTAM_ENVIRONMENT") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// runMapper is the default command: synchronize every target once,
// build the graph and write the artifacts into the workdir.
func runMapper(configPath string, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	source := config.NewStatic(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := sources.NewProvider(source, sources.NewGitSyncer(logger), logger)
	files, err := provider.Load(ctx)
	if err != nil {
		return err
	}
	g := graph.Build(files)

	if err := os.MkdirAll(cfg.Workdir, 0o755); err != nil {
		return fmt.Errorf("failed to create workdir %s: %w", cfg.Workdir, err)
	}

	jsonBytes, err := g.JSON()
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(cfg.Workdir, "output.json")
	if err := os.WriteFile(jsonPath, jsonBytes, 0o644); err != nil {
		return err
	}

	logger.Info("Proceeding to generate the dot file")
	dot := g.DOT()
	dotPath := filepath.Join(cfg.Workdir, "output.dot")
	if err := os.WriteFile(dotPath, []byte(dot), 0o644); err != nil {
		return err
	}

	logger.Info("Proceeding to generate the svg file")
	renderer, err := render.NewGraphviz(logger)
	if err != nil {
		return err
	}
	svg, err := renderer.Render(ctx, dot)
	if err != nil {
		return err
	}
	svgPath := dotPath + ".svg"
	if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
		return err
	}

	logger.Info("Finished",
		zap.String("json", jsonPath),
		zap.String("dot", dotPath),
		zap.String("svg", svgPath),
	)
	return nil
}

// runServer starts the HTTP and websocket server with the update
// scheduler and the live configuration watcher behind it.
func runServer(configPath string, logger *zap.Logger) error {
	initial, err := config.Load(configPath)
	if err != nil {
		return err
	}

	watcher, err := config.NewWatcher(configPath, initial, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.InitializeContainer(ctx, watcher, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         initial.ListenAddress(),
		Handler:      container.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := container.Hub.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := container.Scheduler.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.Uint64("snapshotVersion", container.Store.Version()),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
