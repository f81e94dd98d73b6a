// Package app wires configuration into a ready-to-use estimator and HTTP adapter.
// CLI and server binaries share this wiring.
package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httpadapter "avd-cost/adapters/http"
	pricingadapter "avd-cost/adapters/pricing"
	"avd-cost/core/engine"
	"avd-cost/core/pricing"
	"avd-cost/internal/config"
	"avd-cost/internal/logging"
)

// App holds the wired components
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Source    pricing.Source
	Estimator *engine.Estimator
}

// New validates cfg and wires the retail client, its decorators and the estimator.
// A nil registry gets a fresh one.
func New(cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	client := pricingadapter.NewRetailClient(&pricingadapter.RetailConfig{
		Endpoint:    cfg.Retail.Endpoint,
		APIVersion:  cfg.Retail.APIVersion,
		Currency:    cfg.Constants().Currency,
		HTTPTimeout: cfg.Retail.HTTPTimeout(),
	}, logging.Component(logger, "retail"))

	return NewWithSource(cfg, logger, registry, client), nil
}

// NewWithSource wires the estimator over an arbitrary price source.
// The source is wrapped with the cache and metrics decorators.
func NewWithSource(cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry, source pricing.Source) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	var wrapped pricing.Source = pricingadapter.NewCachingSource(source, cfg.Retail.CacheTTL())
	wrapped = pricingadapter.NewMetricsSource(wrapped, registry)

	est := engine.New(wrapped, cfg.Constants(), cfg.PricingTarget(),
		engine.WithLogger(logging.Component(logger, "engine")),
		engine.WithLookupTimeout(cfg.Retail.LookupTimeout()),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Registry:  registry,
		Source:    wrapped,
		Estimator: est,
	}
}

// HTTPAdapter builds the HTTP adapter listening on addr; empty addr uses the configured address
func (a *App) HTTPAdapter(addr string) *httpadapter.Adapter {
	s := a.Config.Server
	if addr == "" {
		addr = s.Address
	}
	return httpadapter.New(a.Estimator, &httpadapter.Config{
		Address:        addr,
		ReadTimeout:    s.ReadTimeout(),
		WriteTimeout:   s.WriteTimeout(),
		MaxBodySize:    s.MaxBodyBytes,
		AllowedOrigins: s.AllowedOrigins,
		EnableMetrics:  true,
	}, logging.Component(a.Logger, "http"), a.Registry)
}
