// Package http provides the HTTP adapter for the price estimator.
// This adapter exposes the engine functionality via a JSON API.
package http

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"avd-cost/api/v1/mapping"
	"avd-cost/api/v1/types"
	"avd-cost/core/engine"
)

// RequestIDHeader carries the request correlation ID
const RequestIDHeader = "X-Request-ID"

// Config holds HTTP adapter configuration
type Config struct {
	// Address to listen on
	Address string `json:"address"`

	// ReadTimeout for requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for responses
	WriteTimeout time.Duration `json:"write_timeout"`

	// MaxBodySize limits request body size; larger bodies are treated as malformed
	MaxBodySize int64 `json:"max_body_size"`

	// AllowedOrigins for CORS; "*" allows any origin
	AllowedOrigins []string `json:"allowed_origins"`

	// EnableMetrics exposes GET /metrics
	EnableMetrics bool `json:"enable_metrics"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Address:        ":8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxBodySize:    1 << 20, // 1MB
		AllowedOrigins: []string{"*"},
		EnableMetrics:  true,
	}
}

// Estimator prices a request
type Estimator interface {
	Estimate(ctx context.Context, params engine.Params) (*engine.Breakdown, error)
}

// Adapter is the HTTP adapter
type Adapter struct {
	estimator Estimator
	config    *Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	server    *http.Server
	mu        sync.Mutex

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates a new HTTP adapter.
// Request metrics are registered on registry, which also backs GET /metrics.
func New(estimator Estimator, config *Config, logger *zap.Logger, registry *prometheus.Registry) *Adapter {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	factory := promauto.With(registry)
	return &Adapter{
		estimator: estimator,
		config:    config,
		logger:    logger,
		registry:  registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avd_cost",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "avd_cost",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Router returns the HTTP handler
func (a *Adapter) Router() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /ready", a.handleReady)

	// API v1 endpoints
	mux.HandleFunc("POST /api/v1/price", a.handlePrice)

	// Function host custom handler route
	mux.HandleFunc("POST /api/HttpTrigger", a.handlePrice)

	// Metrics
	if a.config.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}

	// Apply middleware
	handler := a.corsMiddleware(mux)
	handler = a.recoveryMiddleware(handler)
	handler = a.loggingMiddleware(handler)
	handler = a.requestIDMiddleware(handler)

	return handler
}

// Listen builds the server and binds its address.
// After Listen returns, Shutdown stops the server even if Serve has not started yet.
func (a *Adapter) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.config.Address)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.server = &http.Server{
		Handler:      a.Router(),
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
	}
	a.mu.Unlock()

	a.logger.Info("http server listening", zap.String("address", ln.Addr().String()))
	return ln, nil
}

// Serve serves on ln until Shutdown; a clean shutdown returns nil
func (a *Adapter) Serve(ln net.Listener) error {
	a.mu.Lock()
	server := a.server
	a.mu.Unlock()
	if server == nil {
		ln.Close()
		return stderrors.New("http: Serve called before Listen")
	}

	if err := server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	a.mu.Unlock()
	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}

// Handler implementations

func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, types.HealthResponse{Status: "healthy"})
}

func (a *Adapter) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.estimator == nil {
		a.writeJSON(w, http.StatusServiceUnavailable, types.HealthResponse{Status: "not ready"})
		return
	}
	a.writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ready"})
}

func (a *Adapter) handlePrice(w http.ResponseWriter, r *http.Request) {
	logger := a.requestLogger(r)

	// A malformed or absent body is not an error: the engine applies defaults
	var req types.PriceRequest
	if err := a.parseJSON(w, r, &req); err != nil {
		logger.Debug("request body ignored", zap.Error(err))
		req = types.PriceRequest{}
	}

	breakdown, err := a.estimator.Estimate(r.Context(), mapping.MapPriceRequest(req))
	if err != nil {
		logger.Error("price calculation failed", zap.Error(err))
		a.writeInternalError(w)
		return
	}

	logger.Info("price calculated",
		zap.Int("users", breakdown.Users),
		zap.String("tier", breakdown.Tier),
		zap.Stringer("price", breakdown.PricePerUser),
	)
	a.writeJSON(w, http.StatusOK, mapping.MapPriceResponse(breakdown))
}

// Middleware

type requestIDKey struct{}

// RequestID returns the correlation ID stored on ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (a *Adapter) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (a *Adapter) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := a.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Adapter) allowedOrigin(origin string) string {
	for _, allowed := range a.config.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && allowed == origin {
			return origin
		}
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *Adapter) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		a.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		a.latency.WithLabelValues(route).Observe(elapsed.Seconds())

		a.requestLogger(r).Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

func (a *Adapter) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				a.requestLogger(r).Error("handler panicked", zap.Any("panic", err))
				a.writeInternalError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Helpers

func (a *Adapter) requestLogger(r *http.Request) *zap.Logger {
	return a.logger.With(zap.String("request_id", RequestID(r.Context())))
}

func (a *Adapter) parseJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.config.MaxBodySize))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func (a *Adapter) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("writing response failed", zap.Error(err))
	}
}

func (a *Adapter) writeInternalError(w http.ResponseWriter) {
	a.writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Message: types.InternalErrorMessage})
}
