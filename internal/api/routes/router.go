package routes

import (
	"net/http"

	"github.com/clinicops/clinic-flow/backend/internal/api/handlers"
	"github.com/clinicops/clinic-flow/backend/internal/api/middleware"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	checkInHandler *handlers.CheckInHandler
	queueHandler   *handlers.QueueHandler
	stationHandler *handlers.StationHandler
	statsHandler   *handlers.StatsHandler
	sseHandler     *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	checkInHandler *handlers.CheckInHandler,
	queueHandler *handlers.QueueHandler,
	stationHandler *handlers.StationHandler,
	statsHandler *handlers.StatsHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		checkInHandler: checkInHandler,
		queueHandler:   queueHandler,
		stationHandler: stationHandler,
		statsHandler:   statsHandler,
		sseHandler:     sseHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Check-in endpoint
	r.mux.HandleFunc("POST /api/checkin", r.checkInHandler.CheckIn)

	// Station registry endpoints
	r.mux.HandleFunc("GET /api/stations", r.stationHandler.ListStations)
	r.mux.HandleFunc("GET /api/stations/optimal", r.stationHandler.OptimalStation)
	r.mux.HandleFunc("GET /api/stations/{id}", r.stationHandler.GetStation)

	// Station queue endpoints
	r.mux.HandleFunc("GET /api/stations/{id}/queue", r.queueHandler.ListStationQueue)
	r.mux.HandleFunc("POST /api/stations/{id}/queue/call-next", r.queueHandler.CallNext)

	// Queue entry state transitions
	r.mux.HandleFunc("GET /api/queue/{id}", r.queueHandler.GetEntry)
	r.mux.HandleFunc("GET /api/queue/{id}/audit", r.queueHandler.AuditTrail)
	r.mux.HandleFunc("POST /api/queue/{id}/start", r.queueHandler.Start)
	r.mux.HandleFunc("POST /api/queue/{id}/complete", r.queueHandler.Complete)
	r.mux.HandleFunc("POST /api/queue/{id}/skip", r.queueHandler.Skip)
	r.mux.HandleFunc("POST /api/queue/{id}/recall", r.queueHandler.Recall)
	r.mux.HandleFunc("POST /api/queue/{id}/no-show", r.queueHandler.NoShow)
	r.mux.HandleFunc("POST /api/queue/{id}/cancel", r.queueHandler.Cancel)

	// Statistics endpoints
	r.mux.HandleFunc("GET /api/stations/{id}/stats", r.statsHandler.GetStationStats)
	r.mux.HandleFunc("GET /api/stats/summary", r.statsHandler.GetDailySummary)

	// Station board streams
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/stations/{id}", r.sseHandler.StreamStationUpdates)
		r.mux.HandleFunc("GET /api/stream/queue", r.sseHandler.StreamAllUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
