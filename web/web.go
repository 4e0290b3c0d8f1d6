// Package web provides the HTTP API: tool listing and description,
// argument validation, type schema introspection, health, and metrics.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/toolgate/adapters/metrics"
	"github.com/artpar/toolgate/core/schema"
	"github.com/artpar/toolgate/core/tools"
)

// Handler provides the JSON API endpoints.
type Handler struct {
	tools    *tools.Registry
	compiler *schema.Compiler
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Tools    *tools.Registry
	Compiler *schema.Compiler
	Metrics  *metrics.Collector // optional
	Logger   zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		tools:    deps.Tools,
		compiler: deps.Compiler,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With().Str("component", "web").Logger(),
	}
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics     *metrics.Collector
	MetricsPath string // default "/metrics"
}

// NewRouter creates the main HTTP router.
func NewRouter(h *Handler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))

		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	// Health endpoints
	r.Get("/health", h.Liveness)
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)

	// Tool endpoints
	r.Get("/tools", h.ListTools)
	r.Get("/tools/{name}", h.GetTool)
	r.Post("/tools/{name}/validate", h.ValidateArguments)

	// Type introspection
	r.Get("/types", h.ListTypes)
	r.Get("/types/{id}", h.GetType)

	return r
}

// Liveness returns a simple liveness check.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness checks that every registered tool still carries a compiled
// schema. Compilation happened at registration, so this is a cheap walk.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	for _, t := range h.tools.List() {
		if t.Schema == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  "tool " + t.Name + " has no compiled schema",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// toolSummary is one entry of the tool listing.
type toolSummary struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ArgsType    schema.TypeID `json:"args_type"`
}

// ListTools returns all registered tools sorted by name.
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	list := h.tools.List()
	out := make([]toolSummary, 0, len(list))
	for _, t := range list {
		out = append(out, toolSummary{
			Name:        t.Name,
			Description: t.Description,
			ArgsType:    t.ArgsType,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

// toolDetail is the full description of one tool.
type toolDetail struct {
	toolSummary
	InputSchema *schema.Description `json:"input_schema"`
}

// GetTool returns one tool with its full argument schema.
func (h *Handler) GetTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := h.tools.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "tool_not_found", "tool "+name+" is not registered")
		return
	}

	writeJSON(w, http.StatusOK, toolDetail{
		toolSummary: toolSummary{
			Name:        t.Name,
			Description: t.Description,
			ArgsType:    t.ArgsType,
		},
		InputSchema: t.Schema.Describe(),
	})
}

// validateResponse is the outcome of a validation request.
type validateResponse struct {
	Success    bool               `json:"success"`
	Value      map[string]any     `json:"value,omitempty"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

// ValidateArguments validates a JSON document against the tool's argument
// schema. Violations are a successful HTTP exchange with success=false;
// only transport-level problems use error status codes.
func (h *Handler) ValidateArguments(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := h.tools.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "tool_not_found", "tool "+name+" is not registered")
		return
	}

	var args any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	start := time.Now()
	value, err := t.Schema.Parse(args)
	if h.metrics != nil {
		h.metrics.ParseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		var verr *schema.ValidationError
		if !errors.As(err, &verr) {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		if h.metrics != nil {
			h.metrics.ParsesTotal.WithLabelValues(name, "invalid").Inc()
			for _, v := range verr.Violations {
				h.metrics.ViolationsTotal.WithLabelValues(name, v.Rule).Inc()
			}
		}
		writeJSON(w, http.StatusOK, validateResponse{Success: false, Violations: verr.Violations})
		return
	}

	if h.metrics != nil {
		h.metrics.ParsesTotal.WithLabelValues(name, "success").Inc()
	}
	writeJSON(w, http.StatusOK, validateResponse{Success: true, Value: value})
}

// ListTypes returns the identities of all registered types.
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": h.compiler.Registry().Types()})
}

// typeDetail is the compiled view of one registered type.
type typeDetail struct {
	ID          schema.TypeID       `json:"id"`
	Description string              `json:"description,omitempty"`
	Schema      *schema.Description `json:"schema"`
}

// GetType compiles a registered type and returns its schema. A broken
// declaration is reported as unprocessable, with the definition error text.
func (h *Handler) GetType(w http.ResponseWriter, r *http.Request) {
	id := schema.TypeID(chi.URLParam(r, "id"))

	compiled, err := h.compiler.Compile(id)
	if err != nil {
		if h.metrics != nil {
			h.metrics.CompilationsTotal.WithLabelValues(string(id), "error").Inc()
		}
		var defErr *schema.DefinitionError
		if errors.As(err, &defErr) && defErr.Reason == "no fields registered for type" {
			writeError(w, http.StatusNotFound, "type_not_found", err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "definition_error", err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.CompilationsTotal.WithLabelValues(string(id), "success").Inc()
	}

	writeJSON(w, http.StatusOK, typeDetail{
		ID:          compiled.TypeID(),
		Description: compiled.Description(),
		Schema:      compiled.Describe(),
	})
}

// errorBody is the error response shape.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// NewLoggingMiddleware logs completed requests.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware records request counts and durations.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			path := metrics.NormalizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
