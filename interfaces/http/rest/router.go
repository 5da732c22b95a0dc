package rest

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"siostam-backend/domain/snapshot"
	"siostam-backend/interfaces/http/rest/handlers"
	"siostam-backend/interfaces/http/rest/middleware"
	"siostam-backend/pkg/observability"
)

// Router assembles middleware, handlers and static assets into one
// http.Handler.
type Router struct {
	store     *snapshot.Store
	ws        http.Handler
	metrics   *observability.Collector
	origins   []string
	staticDir string
	logger    *zap.Logger
}

func NewRouter(
	store *snapshot.Store,
	ws http.Handler,
	metrics *observability.Collector,
	origins []string,
	staticDir string,
	logger *zap.Logger,
) *Router {
	return &Router{
		store:     store,
		ws:        ws,
		metrics:   metrics,
		origins:   origins,
		staticDir: staticDir,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(rt.logger))
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if len(rt.origins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	graphHandler := handlers.NewGraphHandler(rt.store, rt.logger)
	router.Route("/graph", func(r chi.Router) {
		r.Get("/json", graphHandler.GetJSON)
		r.Get("/svg", graphHandler.GetSVG)
		r.Get("/dot", graphHandler.GetDOT)
		r.Get("/status", graphHandler.GetStatus)
	})

	router.Get("/ws", rt.ws.ServeHTTP)

	if rt.staticDir != "" {
		rt.logger.Debug("Serving static files", zap.String("dir", rt.staticDir))
		router.Handle("/*", rt.staticHandler())
	}

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// staticHandler serves the frontend. Paths that match no file fall
// back to index.html, which handles its own routing.
func (rt *Router) staticHandler() http.HandlerFunc {
	dir := http.Dir(rt.staticDir)
	fileServer := http.FileServer(dir)

	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if f, err := dir.Open(name); err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}

		index, err := dir.Open("/index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		index.Close()

		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	}
}
