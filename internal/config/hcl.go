package config

import (
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// hclFile mirrors Config for HCL files. Every block and attribute is optional;
// set values are applied over the defaults.
type hclFile struct {
	Version *string     `hcl:"version,optional"`
	Pricing *hclPricing `hcl:"pricing,block"`
	Target  *hclTarget  `hcl:"target,block"`
	Retail  *hclRetail  `hcl:"retail,block"`
	Server  *hclServer  `hcl:"server,block"`
	Logging *hclLogging `hcl:"logging,block"`
}

type hclPricing struct {
	Margin                 *float64 `hcl:"margin,optional"`
	AutoscaleFactor        *float64 `hcl:"autoscale_factor,optional"`
	StoragePerUserGB       *float64 `hcl:"storage_per_user_gb,optional"`
	UsersPerVM             *int     `hcl:"users_per_vm,optional"`
	HoursPerMonth          *float64 `hcl:"hours_per_month,optional"`
	PrivateEndpoints       *int     `hcl:"private_endpoints,optional"`
	PrivateEndpointCost    *float64 `hcl:"private_endpoint_cost,optional"`
	SecurityCostPerVM      *float64 `hcl:"security_cost_per_vm,optional"`
	ComputeFallbackMonthly *float64 `hcl:"compute_fallback_monthly,optional"`
	StorageFallbackPerGB   *float64 `hcl:"storage_fallback_per_gb,optional"`
	StorageMaxPerGB        *float64 `hcl:"storage_max_per_gb,optional"`
	BillingUnit            *string  `hcl:"billing_unit,optional"`
}

type hclTarget struct {
	Region                  *string   `hcl:"region,optional"`
	ComputeSKU              *string   `hcl:"compute_sku,optional"`
	ComputeProduct          *string   `hcl:"compute_product,optional"`
	ComputeExcludedVariants *[]string `hcl:"compute_excluded_variants,optional"`
	ComputePolicy           *string   `hcl:"compute_policy,optional"`
	ReservationTerm         *string   `hcl:"reservation_term,optional"`
	StorageProduct          *string   `hcl:"storage_product,optional"`
	StorageSKU              *string   `hcl:"storage_sku,optional"`
	StorageUnit             *string   `hcl:"storage_unit,optional"`
}

type hclRetail struct {
	Endpoint             *string `hcl:"endpoint,optional"`
	APIVersion           *string `hcl:"api_version,optional"`
	HTTPTimeoutSeconds   *int    `hcl:"http_timeout_seconds,optional"`
	LookupTimeoutSeconds *int    `hcl:"lookup_timeout_seconds,optional"`
	CacheTTLSeconds      *int    `hcl:"cache_ttl_seconds,optional"`
}

type hclServer struct {
	Address             *string   `hcl:"address,optional"`
	ReadTimeoutSeconds  *int      `hcl:"read_timeout_seconds,optional"`
	WriteTimeoutSeconds *int      `hcl:"write_timeout_seconds,optional"`
	MaxBodyBytes        *int64    `hcl:"max_body_bytes,optional"`
	AllowedOrigins      *[]string `hcl:"allowed_origins,optional"`
}

type hclLogging struct {
	Level       *string `hcl:"level,optional"`
	Format      *string `hcl:"format,optional"`
	Output      *string `hcl:"output,optional"`
	Development *bool   `hcl:"development,optional"`
}

func decodeHCL(path string, data []byte, config *Config) error {
	var f hclFile
	if err := hclsimple.Decode(path, data, nil, &f); err != nil {
		return err
	}
	f.apply(config)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (f *hclFile) apply(c *Config) {
	set(&c.Version, f.Version)

	if p := f.Pricing; p != nil {
		set(&c.Pricing.Margin, p.Margin)
		set(&c.Pricing.AutoscaleFactor, p.AutoscaleFactor)
		set(&c.Pricing.StoragePerUserGB, p.StoragePerUserGB)
		set(&c.Pricing.UsersPerVM, p.UsersPerVM)
		set(&c.Pricing.HoursPerMonth, p.HoursPerMonth)
		set(&c.Pricing.PrivateEndpoints, p.PrivateEndpoints)
		set(&c.Pricing.PrivateEndpointCost, p.PrivateEndpointCost)
		set(&c.Pricing.SecurityCostPerVM, p.SecurityCostPerVM)
		set(&c.Pricing.ComputeFallbackMonthly, p.ComputeFallbackMonthly)
		set(&c.Pricing.StorageFallbackPerGB, p.StorageFallbackPerGB)
		set(&c.Pricing.StorageMaxPerGB, p.StorageMaxPerGB)
		set(&c.Pricing.BillingUnit, p.BillingUnit)
	}

	if t := f.Target; t != nil {
		set(&c.Target.Region, t.Region)
		set(&c.Target.ComputeSKU, t.ComputeSKU)
		set(&c.Target.ComputeProduct, t.ComputeProduct)
		set(&c.Target.ComputeExcludedVariants, t.ComputeExcludedVariants)
		set(&c.Target.ComputePolicy, t.ComputePolicy)
		set(&c.Target.ReservationTerm, t.ReservationTerm)
		set(&c.Target.StorageProduct, t.StorageProduct)
		set(&c.Target.StorageSKU, t.StorageSKU)
		set(&c.Target.StorageUnit, t.StorageUnit)
	}

	if r := f.Retail; r != nil {
		set(&c.Retail.Endpoint, r.Endpoint)
		set(&c.Retail.APIVersion, r.APIVersion)
		set(&c.Retail.HTTPTimeoutSeconds, r.HTTPTimeoutSeconds)
		set(&c.Retail.LookupTimeoutSeconds, r.LookupTimeoutSeconds)
		set(&c.Retail.CacheTTLSeconds, r.CacheTTLSeconds)
	}

	if s := f.Server; s != nil {
		set(&c.Server.Address, s.Address)
		set(&c.Server.ReadTimeoutSeconds, s.ReadTimeoutSeconds)
		set(&c.Server.WriteTimeoutSeconds, s.WriteTimeoutSeconds)
		set(&c.Server.MaxBodyBytes, s.MaxBodyBytes)
		set(&c.Server.AllowedOrigins, s.AllowedOrigins)
	}

	if l := f.Logging; l != nil {
		set(&c.Logging.Level, l.Level)
		set(&c.Logging.Format, l.Format)
		set(&c.Logging.Output, l.Output)
		set(&c.Logging.Development, l.Development)
	}
}
