// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"avd-cost/core/pricing"
	"avd-cost/core/types"
	"avd-cost/internal/errors"
	"avd-cost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Pricing contains the business constants
	Pricing PricingConfig `json:"pricing" yaml:"pricing"`

	// Target selects the region and products being priced
	Target TargetConfig `json:"target" yaml:"target"`

	// Retail configures the retail prices API client
	Retail RetailConfig `json:"retail" yaml:"retail"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// PricingConfig contains the business constants of a calculation
type PricingConfig struct {
	Margin                 float64 `json:"margin" yaml:"margin"`
	AutoscaleFactor        float64 `json:"autoscale_factor" yaml:"autoscale_factor"`
	StoragePerUserGB       float64 `json:"storage_per_user_gb" yaml:"storage_per_user_gb"`
	UsersPerVM             int     `json:"users_per_vm" yaml:"users_per_vm"`
	HoursPerMonth          float64 `json:"hours_per_month" yaml:"hours_per_month"`
	PrivateEndpoints       int     `json:"private_endpoints" yaml:"private_endpoints"`
	PrivateEndpointCost    float64 `json:"private_endpoint_cost" yaml:"private_endpoint_cost"`
	SecurityCostPerVM      float64 `json:"security_cost_per_vm" yaml:"security_cost_per_vm"`
	ComputeFallbackMonthly float64 `json:"compute_fallback_monthly" yaml:"compute_fallback_monthly"`
	StorageFallbackPerGB   float64 `json:"storage_fallback_per_gb" yaml:"storage_fallback_per_gb"`
	StorageMaxPerGB        float64 `json:"storage_max_per_gb" yaml:"storage_max_per_gb"`

	// BillingUnit labels the final price
	BillingUnit string `json:"billing_unit" yaml:"billing_unit"`
}

// TargetConfig selects what is priced
type TargetConfig struct {
	// Region is the ARM region name
	Region string `json:"region" yaml:"region"`

	// ComputeSKU is the VM size of a session host
	ComputeSKU string `json:"compute_sku" yaml:"compute_sku"`

	// ComputeProduct optionally pins the retail product, e.g. the Windows series
	ComputeProduct string `json:"compute_product" yaml:"compute_product"`

	// ComputeExcludedVariants are meter suffixes skipped on consumption pricing
	ComputeExcludedVariants []string `json:"compute_excluded_variants" yaml:"compute_excluded_variants"`

	// ComputePolicy is "consumption" or "reservation"
	ComputePolicy string `json:"compute_policy" yaml:"compute_policy"`

	// ReservationTerm is "1 Year", "3 Years" or "5 Years"
	ReservationTerm string `json:"reservation_term" yaml:"reservation_term"`

	StorageProduct string `json:"storage_product" yaml:"storage_product"`
	StorageSKU     string `json:"storage_sku" yaml:"storage_sku"`
	StorageUnit    string `json:"storage_unit" yaml:"storage_unit"`
}

// RetailConfig configures retail price lookups
type RetailConfig struct {
	// Endpoint is the retail prices API base URL
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIVersion is the pinned API version
	APIVersion string `json:"api_version" yaml:"api_version"`

	// HTTPTimeoutSeconds bounds a single HTTP request
	HTTPTimeoutSeconds int `json:"http_timeout_seconds" yaml:"http_timeout_seconds"`

	// LookupTimeoutSeconds bounds a lookup; on timeout the fallback price is used
	LookupTimeoutSeconds int `json:"lookup_timeout_seconds" yaml:"lookup_timeout_seconds"`

	// CacheTTLSeconds is how long found prices are cached; 0 disables caching
	CacheTTLSeconds int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Address to listen on
	Address string `json:"address" yaml:"address"`

	// ReadTimeoutSeconds for requests
	ReadTimeoutSeconds int `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`

	// WriteTimeoutSeconds for responses
	WriteTimeoutSeconds int `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`

	// MaxBodyBytes limits request body size
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	// AllowedOrigins for CORS; "*" allows any origin
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			Margin:                 1.30,
			AutoscaleFactor:        0.60,
			StoragePerUserGB:       15,
			UsersPerVM:             4,
			HoursPerMonth:          730,
			PrivateEndpoints:       2,
			PrivateEndpointCost:    9.30,
			SecurityCostPerVM:      15.00,
			ComputeFallbackMonthly: 120.00,
			StorageFallbackPerGB:   0.16,
			StorageMaxPerGB:        1.0,
			BillingUnit:            "user/month",
		},
		Target: TargetConfig{
			Region:          "westeurope",
			ComputeSKU:              "Standard_D4s_v5",
			ComputeExcludedVariants: pricing.DefaultExcludedVariants(),
			ComputePolicy:           string(pricing.PolicyConsumption),
			ReservationTerm:         "3 Years",
			StorageProduct:          "Premium Files",
			StorageSKU:              "Premium LRS",
			StorageUnit:             "1 GiB/Month",
		},
		Retail: RetailConfig{
			Endpoint:             "https://prices.azure.com/api/retail/prices",
			APIVersion:           "2023-01-01-preview",
			HTTPTimeoutSeconds:   10,
			LookupTimeoutSeconds: 5,
			CacheTTLSeconds:      3600,
		},
		Server: ServerConfig{
			Address:             ":8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
			MaxBodyBytes:        1 << 20,
			AllowedOrigins:      []string{"*"},
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file.
// The decoder is chosen by extension: .json, .yaml/.yml or .hcl.
// Settings absent from the file keep their defaults; a missing file yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		err = json.Unmarshal(data, config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".hcl":
		err = decodeHCL(path, data, config)
	default:
		return nil, errors.Config(fmt.Sprintf("unsupported config format %q", ext))
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "parsing "+path, err)
	}

	return config, nil
}

// Save saves configuration to a file as JSON
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration can start the service
func (c *Config) Validate() error {
	if err := c.Constants().Validate(); err != nil {
		return err
	}
	if err := c.PricingTarget().Validate(); err != nil {
		return err
	}
	if c.Retail.Endpoint == "" {
		return errors.Config("retail endpoint is required")
	}
	if c.Retail.LookupTimeoutSeconds < 0 || c.Retail.HTTPTimeoutSeconds < 0 || c.Retail.CacheTTLSeconds < 0 {
		return errors.Config("retail timeouts and cache TTL must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.Config("server max body size must be positive")
	}
	return nil
}

// Constants converts the pricing section into calculation constants
func (c *Config) Constants() pricing.Constants {
	p := c.Pricing
	return pricing.Constants{
		Margin:                 decimal.NewFromFloat(p.Margin),
		AutoscaleFactor:        decimal.NewFromFloat(p.AutoscaleFactor),
		StoragePerUserGB:       decimal.NewFromFloat(p.StoragePerUserGB),
		UsersPerVM:             p.UsersPerVM,
		HoursPerMonth:          decimal.NewFromFloat(p.HoursPerMonth),
		PrivateEndpoints:       p.PrivateEndpoints,
		PrivateEndpointCost:    decimal.NewFromFloat(p.PrivateEndpointCost),
		SecurityCostPerVM:      decimal.NewFromFloat(p.SecurityCostPerVM),
		ComputeFallbackMonthly: decimal.NewFromFloat(p.ComputeFallbackMonthly),
		StorageFallbackPerGB:   decimal.NewFromFloat(p.StorageFallbackPerGB),
		StorageMaxPerGB:        decimal.NewFromFloat(p.StorageMaxPerGB),
		Currency:               types.CurrencyUSD,
		BillingUnit:            p.BillingUnit,
	}
}

// PricingTarget converts the target section
func (c *Config) PricingTarget() pricing.Target {
	t := c.Target
	return pricing.Target{
		Region:                  t.Region,
		ComputeSKU:              t.ComputeSKU,
		ComputeProduct:          t.ComputeProduct,
		ComputeExcludedVariants: append([]string(nil), t.ComputeExcludedVariants...),
		ComputePolicy:           pricing.ComputePolicy(t.ComputePolicy),
		ReservationTerm:         t.ReservationTerm,
		StorageProduct:          t.StorageProduct,
		StorageSKU:              t.StorageSKU,
		StorageUnit:             t.StorageUnit,
	}
}

// LookupTimeout returns the per-lookup bound
func (r RetailConfig) LookupTimeout() time.Duration {
	return time.Duration(r.LookupTimeoutSeconds) * time.Second
}

// HTTPTimeout returns the per-request HTTP bound
func (r RetailConfig) HTTPTimeout() time.Duration {
	return time.Duration(r.HTTPTimeoutSeconds) * time.Second
}

// CacheTTL returns how long found prices are cached
func (r RetailConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// ReadTimeout returns the server read timeout
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
