package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/contact-form-service/internal/observability"
)

// RouterConfig holds the per-route middleware settings.
type RouterConfig struct {
	Limiter        *rate.Limiter // nil disables rate limiting
	RequestTimeout time.Duration // 0 disables the per-request deadline
}

// NewRouter mounts every route on a mux.Router. Contact routes are rate
// limited and time-bounded; /health and /metrics are not.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/", h.GetRoot).Methods(http.MethodGet)

	contact := router.PathPrefix("/contact").Subrouter()
	api := router.PathPrefix("/api/contact").Subrouter()
	for _, sub := range []*mux.Router{contact, api} {
		sub.Use(RateLimitMiddleware(cfg.Limiter))
		if cfg.RequestTimeout > 0 {
			sub.Use(TimeoutMiddleware(cfg.RequestTimeout))
		}
	}
	contact.HandleFunc("", h.GetContact).Methods(http.MethodGet)
	contact.HandleFunc("/change", h.PostChange).Methods(http.MethodPost)
	contact.HandleFunc("/submit", h.PostSubmit).Methods(http.MethodPost)
	contact.HandleFunc("/unmount", h.PostUnmount).Methods(http.MethodPost)

	api.HandleFunc("", h.GetContactState).Methods(http.MethodGet)
	api.HandleFunc("/events", h.PostContactEvents).Methods(http.MethodPost)
	return router
}
