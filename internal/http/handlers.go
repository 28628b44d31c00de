package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/contact-form-service/internal/form"
	"github.com/kjstillabower/contact-form-service/internal/lifecycle"
	"github.com/kjstillabower/contact-form-service/internal/models"
	"github.com/kjstillabower/contact-form-service/internal/observability"
	"github.com/kjstillabower/contact-form-service/internal/render"
	"github.com/kjstillabower/contact-form-service/internal/service"
	"github.com/kjstillabower/contact-form-service/internal/traffic"
)

// SessionCookieName carries the form instance id between requests.
const SessionCookieName = "contact_session"

// maxEventBody caps JSON event payloads.
const maxEventBody = 64 << 10

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	RateLimitBurst       int // 0 when rate limiter disabled
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	// PingTimeout bounds the session store reachability check. Zero means 2s.
	PingTimeout time.Duration
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	contacts         *service.ContactService
	renderer         *render.Renderer
	healthConfig     *HealthConfig
	logger           *zap.Logger
	sessionTTL       time.Duration
	cookieSecure     bool
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. sessionTTL sets the cookie lifetime.
func NewHandler(
	contacts *service.ContactService,
	renderer *render.Renderer,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	sessionTTL time.Duration,
	cookieSecure bool,
) *Handler {
	return &Handler{
		contacts:     contacts,
		renderer:     renderer,
		healthConfig: healthConfig,
		logger:       logger,
		sessionTTL:   sessionTTL,
		cookieSecure: cookieSecure,
	}
}

// GetRoot handles GET / by redirecting to the contact page.
func (h *Handler) GetRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/contact", http.StatusFound)
}

// GetContact handles GET /contact: mounts or resumes the caller's form instance and renders it.
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, state, err := h.contacts.Resume(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.setSessionCookie(w, id)
	h.renderPage(w, r, http.StatusOK, state)
}

// PostChange handles POST /contact/change with form values field and value.
func (h *Handler) PostChange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_EVENT", "malformed form body")
		return
	}
	field, err := models.ParseField(r.PostFormValue("field"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_FIELD", err.Error())
		return
	}
	h.applyAndRender(w, r, form.Change(field, r.PostFormValue("value")))
}

// PostSubmit handles POST /contact/submit. Every posted field becomes a change
// event, followed by one submit.
func (h *Handler) PostSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_EVENT", "malformed form body")
		return
	}
	events := make([]form.Event, 0, len(models.Fields)+1)
	for _, f := range models.Fields {
		if _, ok := r.PostForm[string(f)]; ok {
			events = append(events, form.Change(f, r.PostForm.Get(string(f))))
		}
	}
	events = append(events, form.Submit())
	h.applyAndRender(w, r, events...)
}

// PostUnmount handles POST /contact/unmount: discards the instance and clears the cookie.
func (h *Handler) PostUnmount(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id != "" {
		if err := h.contacts.Unmount(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

// stateResponse is the JSON view of a form instance.
type stateResponse struct {
	Values    models.ContactForm  `json:"values"`
	Errors    map[string]string   `json:"errors"`
	Phase     form.Phase          `json:"phase"`
	Submitted *models.ContactForm `json:"submitted"`
}

func newStateResponse(s form.State) stateResponse {
	resp := stateResponse{
		Values: s.Values,
		Errors: s.VisibleErrors().Messages(),
		Phase:  s.Phase(),
	}
	if snap, ok := s.Snapshot(); ok {
		resp.Submitted = &snap
	}
	return resp
}

// GetContactState handles GET /api/contact.
func (h *Handler) GetContactState(w http.ResponseWriter, r *http.Request) {
	id, state, err := h.contacts.Resume(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.setSessionCookie(w, id)
	writeJSON(w, http.StatusOK, newStateResponse(state))
}

// eventPayload is one event in a POST /api/contact/events body.
type eventPayload struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

type eventsRequest struct {
	eventPayload
	Events []eventPayload `json:"events,omitempty"`
}

// PostContactEvents handles POST /api/contact/events. The body is a single
// event or {"events":[...]}; all events are validated before any is applied.
func (h *Handler) PostContactEvents(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_EVENT", "request body must be a JSON event")
		return
	}
	payloads := req.Events
	if len(payloads) == 0 {
		payloads = []eventPayload{req.eventPayload}
	}
	events := make([]form.Event, 0, len(payloads))
	for i, p := range payloads {
		e, code, err := parseEvent(p)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, code, fmt.Sprintf("event %d: %v", i, err))
			return
		}
		events = append(events, e)
	}

	id, err := h.ensureSession(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	state, err := h.contacts.Apply(r.Context(), id, events...)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(state))
}

// parseEvent converts a payload into a reducer event, returning the error code on failure.
func parseEvent(p eventPayload) (form.Event, string, error) {
	switch form.EventType(p.Type) {
	case form.EventChange:
		f, err := models.ParseField(p.Field)
		if err != nil {
			return form.Event{}, "INVALID_FIELD", err
		}
		return form.Change(f, p.Value), "", nil
	case form.EventSubmit:
		return form.Submit(), "", nil
	default:
		return form.Event{}, "INVALID_EVENT", fmt.Errorf("unknown event type %q", p.Type)
	}
}

func (h *Handler) applyAndRender(w http.ResponseWriter, r *http.Request, events ...form.Event) {
	id, err := h.ensureSession(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	state, err := h.contacts.Apply(r.Context(), id, events...)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, state)
}

// ensureSession returns the caller's instance id. A missing, malformed or
// unknown id is replaced by a freshly mounted one.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	id, _, err := h.contacts.Resume(r.Context(), sessionID(r))
	if err != nil {
		return "", err
	}
	h.setSessionCookie(w, id)
	return id, nil
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, state form.State) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, state); err != nil {
		observability.LoggerFromContext(r.Context()).Error("render contact page", zap.Error(err))
	}
}

// sessionID returns the canonical instance id from the session cookie, or ""
// when the cookie is absent or not a UUID. Ids are only ever issued by Mount.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result, storeErr := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"sessionStore": "healthy"}
	if storeErr != nil {
		checks["sessionStore"] = "unhealthy"
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "contact-form-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// starting > shutting-down > store unreachable > overloaded > error rate > healthy.
// The store ping error is returned separately for the checks block.
func (h *Handler) computeHealthStatus(ctx context.Context) (healthResult, error) {
	timeout := 2 * time.Second
	if h.healthConfig != nil && h.healthConfig.PingTimeout > 0 {
		timeout = h.healthConfig.PingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	storeErr := h.contacts.Ping(pingCtx)

	if !lifecycle.IsReady() {
		return healthResult{"starting", http.StatusServiceUnavailable, "ready_delay"}, storeErr
	}
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}, storeErr
	}
	if storeErr != nil {
		return healthResult{"degraded", http.StatusServiceUnavailable, "session_store_unreachable"}, storeErr
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}, nil
	}
	if h.healthConfig.RateLimitRPS > 0 && h.healthConfig.OverloadWindow > 0 {
		threshold := float64(h.healthConfig.RateLimitRPS) * h.healthConfig.OverloadWindow.Seconds() * float64(h.healthConfig.OverloadThresholdPct) / 100
		if float64(traffic.RequestCount(h.healthConfig.OverloadWindow)) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}, nil
		}
	}
	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		failures, total := traffic.FailureRate(h.healthConfig.DegradedWindow)
		if total > 0 && float64(failures)*100/float64(total) >= float64(h.healthConfig.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}, nil
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}, nil
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope with the request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationIDFromContext(r.Context()),
		},
	})
}

// writeServiceError maps session failures to 503 SESSION_UNAVAILABLE.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("request deadline exceeded", zap.Error(err))
	} else {
		logger.Debug("session error", zap.Error(err))
	}
	writeError(w, r, http.StatusServiceUnavailable, "SESSION_UNAVAILABLE", "Contact form session is unavailable")
}
