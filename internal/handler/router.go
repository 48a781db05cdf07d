package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	generationHandler *GenerationHandler,
	statusHandler *StatusHandler,
	webhookHandler *WebhookHandler,
	middleware *Middleware,
	metricsHandler http.Handler,
) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogging)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "genquota-server"})
	}).Methods(http.MethodGet)

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	// App routes (native clients only)
	router.Handle("/api/generate", clientRoute(middleware, generationHandler.Generate)).Methods(http.MethodPost)
	router.Handle("/api/status", clientRoute(middleware, statusHandler.Status)).Methods(http.MethodPost)

	// Billing provider routes
	router.Handle("/api/webhook", middleware.LimitBody(middleware.WebhookAuth(http.HandlerFunc(webhookHandler.Handle)))).Methods(http.MethodPost)

	// Browsers are never granted access; the native app sends no Origin.
	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool { return false },
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			appSecretHeader,
		},
	})

	return c.Handler(router)
}

func clientRoute(m *Middleware, h http.HandlerFunc) http.Handler {
	return m.LimitBody(m.ClientAuth(h))
}
