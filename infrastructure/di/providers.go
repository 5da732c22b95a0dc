package di

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"siostam-backend/application/ports"
	"siostam-backend/application/update"
	"siostam-backend/domain/graph"
	"siostam-backend/domain/snapshot"
	"siostam-backend/infrastructure/config"
	"siostam-backend/infrastructure/render"
	"siostam-backend/infrastructure/sources"
	"siostam-backend/interfaces/http/rest"
	"siostam-backend/interfaces/websocket"
	"siostam-backend/pkg/observability"
)

// Container holds the wired application. The caller owns the
// lifecycles: Scheduler.Run and Hub.Run want goroutines, Handler wants
// an http.Server.
type Container struct {
	Source    config.Source
	Logger    *zap.Logger
	Metrics   *observability.Collector
	Store     *snapshot.Store
	Hub       *websocket.Hub
	Scheduler *update.Scheduler
	Handler   http.Handler
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("siostam")
}

// ProvideGitSyncer creates the git synchronizer
func ProvideGitSyncer(logger *zap.Logger) *sources.GitSyncer {
	return sources.NewGitSyncer(logger)
}

// ProvideSourceProvider creates the descriptor source provider
func ProvideSourceProvider(source config.Source, syncer *sources.GitSyncer, logger *zap.Logger) ports.SourceProvider {
	return sources.NewProvider(source, syncer, logger)
}

// ProvideConfigSource exposes the configuration to the update flow
func ProvideConfigSource(source config.Source) ports.ConfigSource {
	return source
}

// ProvideRenderer creates the graphviz renderer. This fails when the
// binary is not installed, which aborts startup.
func ProvideRenderer(logger *zap.Logger) (snapshot.Renderer, error) {
	return render.NewGraphviz(logger)
}

// ProvideStore performs the initial source load and publishes the
// version 0 snapshot.
func ProvideStore(ctx context.Context, provider ports.SourceProvider, renderer snapshot.Renderer) (*snapshot.Store, error) {
	files, err := provider.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.NewStore(ctx, graph.Build(files), renderer)
}

// ProvideHub creates the websocket hub
func ProvideHub(metrics *observability.Collector, logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(metrics, logger)
}

// ProvideNotifier creates the version announcer
func ProvideNotifier(hub *websocket.Hub, metrics *observability.Collector, logger *zap.Logger) ports.Notifier {
	return websocket.NewNotifier(hub, metrics, logger)
}

// ProvideScheduler creates the update scheduler
func ProvideScheduler(
	store *snapshot.Store,
	provider ports.SourceProvider,
	configSource ports.ConfigSource,
	notifier ports.Notifier,
	metrics *observability.Collector,
	logger *zap.Logger,
	source config.Source,
) *update.Scheduler {
	tick := time.Duration(source.Current().Updater.Tick)
	return update.NewScheduler(store, provider, configSource, notifier, metrics, logger, tick)
}

// ProvideWSHandler creates the websocket upgrade endpoint
func ProvideWSHandler(hub *websocket.Hub, source config.Source, logger *zap.Logger) *websocket.Handler {
	cfg := source.Current()
	return websocket.NewHandler(hub, cfg.Server.CORSAllowedOrigins, logger)
}

// ProvideHandler assembles the HTTP routing tree
func ProvideHandler(
	store *snapshot.Store,
	ws *websocket.Handler,
	metrics *observability.Collector,
	source config.Source,
	logger *zap.Logger,
) http.Handler {
	cfg := source.Current()
	router := rest.NewRouter(store, ws, metrics, cfg.Server.CORSAllowedOrigins, cfg.Server.StaticDir, logger)
	return router.Setup()
}
