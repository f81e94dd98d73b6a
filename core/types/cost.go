// Package types - Shared value types for prices and costs
package types

// Currency represents a currency code
type Currency string

const (
	// CurrencyUSD is the only currency prices are quoted in
	CurrencyUSD Currency = "USD"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// PriceSource records where a unit price used in a calculation came from
type PriceSource string

const (
	// SourceRetail means the unit price was returned by the retail pricing service
	SourceRetail PriceSource = "retail"

	// SourceFallback means the configured fallback unit price was used
	SourceFallback PriceSource = "fallback"
)

// String returns the string representation
func (s PriceSource) String() string {
	return string(s)
}
