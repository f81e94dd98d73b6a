package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"avd-cost/core/pricing"
	"avd-cost/core/types"
	"avd-cost/internal/errors"
)

const (
	// DefaultRetailEndpoint is the public Azure retail prices API
	DefaultRetailEndpoint = "https://prices.azure.com/api/retail/prices"

	// DefaultRetailAPIVersion is the pinned API version
	DefaultRetailAPIVersion = "2023-01-01-preview"

	// maxRetailBody bounds how much of a response body is decoded
	maxRetailBody = 8 << 20
)

// RetailConfig configures the retail prices client
type RetailConfig struct {
	// Endpoint is the base URL of the prices API
	Endpoint string

	// APIVersion is sent as api-version
	APIVersion string

	// Currency is sent as currencyCode
	Currency types.Currency

	// HTTPTimeout bounds a whole request, including reading the body
	HTTPTimeout time.Duration
}

// DefaultRetailConfig returns production defaults
func DefaultRetailConfig() *RetailConfig {
	return &RetailConfig{
		Endpoint:    DefaultRetailEndpoint,
		APIVersion:  DefaultRetailAPIVersion,
		Currency:    types.CurrencyUSD,
		HTTPTimeout: 10 * time.Second,
	}
}

// RetailPricePage is one page of the retail prices API response
type RetailPricePage struct {
	BillingCurrency string       `json:"BillingCurrency"`
	Items           []RetailItem `json:"Items"`
	NextPageLink    string       `json:"NextPageLink"`
	Count           int          `json:"Count"`
}

// RetailItem is a single meter of the retail prices API
type RetailItem struct {
	CurrencyCode    string          `json:"currencyCode"`
	RetailPrice     decimal.Decimal `json:"retailPrice"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	ArmRegionName   string          `json:"armRegionName"`
	MeterName       string          `json:"meterName"`
	ProductName     string          `json:"productName"`
	SkuName         string          `json:"skuName"`
	ArmSkuName      string          `json:"armSkuName"`
	ServiceName     string          `json:"serviceName"`
	ServiceFamily   string          `json:"serviceFamily"`
	UnitOfMeasure   string          `json:"unitOfMeasure"`
	Type            string          `json:"type"`
	ReservationTerm string          `json:"reservationTerm,omitempty"`
}

// RetailClient looks up unit prices from the retail prices API.
// Each lookup is a single GET; only the first matching item is used.
type RetailClient struct {
	httpClient *http.Client
	endpoint   string
	apiVersion string
	currency   types.Currency
	logger     *zap.Logger
}

// NewRetailClient creates a retail prices client
func NewRetailClient(cfg *RetailConfig, logger *zap.Logger) *RetailClient {
	if cfg == nil {
		cfg = DefaultRetailConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetailClient{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		endpoint:   cfg.Endpoint,
		apiVersion: cfg.APIVersion,
		currency:   cfg.Currency,
		logger:     logger,
	}
}

// URL returns the request URL for a query.
// The filter is escaped the way encodeURIComponent does, spaces as %20.
func (c *RetailClient) URL(q pricing.Query) string {
	return fmt.Sprintf("%s?api-version=%s&currencyCode=%s&$filter=%s",
		c.endpoint,
		escape(c.apiVersion),
		escape(string(c.currency)),
		escape(q.Filter()),
	)
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// LookupUnitPrice implements pricing.Source
func (c *RetailClient) LookupUnitPrice(ctx context.Context, q pricing.Query) pricing.LookupResult {
	log := c.logger.With(
		zap.String("category", string(q.Category)),
		zap.String("filter", q.Filter()),
	)

	item, err := c.firstItem(ctx, q)
	if err != nil {
		log.Warn("retail price lookup failed", zap.Error(err))
		return pricing.Unavailable(err)
	}
	if item == nil {
		log.Info("no retail price matched")
		return pricing.Unavailable(errors.LookupUnavailable("no retail price matched", nil))
	}

	log.Debug("retail price found",
		zap.Stringer("price", item.RetailPrice),
		zap.String("unit", item.UnitOfMeasure),
		zap.String("product", item.ProductName),
		zap.String("sku", item.SkuName),
	)

	res := pricing.Priced(item.RetailPrice, item.UnitOfMeasure)
	res.Product = item.ProductName
	res.SKU = item.SkuName
	return res
}

// firstItem returns the first matching item, or nil when the result list is empty
func (c *RetailClient) firstItem(ctx context.Context, q pricing.Query) (*RetailItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(q), nil)
	if err != nil {
		return nil, errors.LookupUnavailable("building retail request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.LookupUnavailable("retail request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxRetailBody))
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("closing retail response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.LookupUnavailable(fmt.Sprintf("retail API returned %s", resp.Status), nil).
			WithContext("status", resp.StatusCode)
	}

	var page RetailPricePage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRetailBody)).Decode(&page); err != nil {
		return nil, errors.LookupUnavailable("decoding retail response", err)
	}

	if len(page.Items) == 0 {
		return nil, nil
	}
	return &page.Items[0], nil
}
