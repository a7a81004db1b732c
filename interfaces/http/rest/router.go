package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sysmap-backend/application/services"
	"sysmap-backend/infrastructure/config"
	"sysmap-backend/infrastructure/store"
	"sysmap-backend/interfaces/http/rest/handlers"
	"sysmap-backend/interfaces/http/rest/middleware"
	"sysmap-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	maps    *services.MapService
	shares  *services.ShareService
	kv      store.KVStore
	cfg     *config.Config
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	maps *services.MapService,
	shares *services.ShareService,
	kv store.KVStore,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		maps:    maps,
		shares:  shares,
		kv:      kv,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(rt.cfg.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	mapHandler := handlers.NewMapHandler(rt.maps, rt.cfg.MaxBodyBytes, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.maps, rt.cfg.MaxBodyBytes, rt.logger)
	connectionHandler := handlers.NewConnectionHandler(rt.maps, rt.cfg.MaxBodyBytes, rt.logger)
	shareHandler := handlers.NewShareHandler(rt.shares, rt.cfg.MaxBodyBytes, rt.logger)

	router.Route("/api", func(r chi.Router) {
		// Map endpoints
		r.Route("/maps", func(r chi.Router) {
			r.Get("/", mapHandler.ListMaps)
			r.Post("/", mapHandler.CreateMap)

			r.Route("/{mapID}", func(r chi.Router) {
				r.Get("/", mapHandler.GetMap)
				r.Put("/", mapHandler.UpdateMap)
				r.Delete("/", mapHandler.DeleteMap)
				r.Get("/integrity", mapHandler.CheckIntegrity)

				// Node endpoints
				r.Post("/nodes", nodeHandler.AddNode)
				r.Put("/nodes/{nodeID}", nodeHandler.UpdateNode)
				r.Put("/nodes/{nodeID}/rename", nodeHandler.RenameNode)
				r.Delete("/nodes/{nodeID}", nodeHandler.DeleteNode)

				// Connection endpoints
				r.Get("/nodes/{nodeID}/connections", connectionHandler.NodeConnections)
				r.Get("/connections", connectionHandler.MapConnections)
				r.Delete("/connections", connectionHandler.RemoveConnection)

				// Redacted sharing
				r.Post("/redacted", shareHandler.CreateShare)
				r.Get("/redacted", shareHandler.ListShares)
			})
		})

		// Public redacted endpoint
		r.Get("/redacted/{redactedID}", shareHandler.GetShare)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := rt.kv.Ping(req.Context()); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func splitOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
