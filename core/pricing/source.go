package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// LookupResult is the outcome of one retail price lookup.
// A zero-priced item is Found with a zero Price; a failed lookup is not Found.
type LookupResult struct {
	// Price is the retail unit price; zero when not found
	Price decimal.Decimal

	// Found reports whether the source returned a matching item
	Found bool

	// Unit is the unit of measure of the matched item
	Unit string

	// Product and SKU describe the matched item
	Product string
	SKU     string

	// Err explains why nothing was found, if a failure caused it
	Err error
}

// Priced builds a successful lookup result
func Priced(price decimal.Decimal, unit string) LookupResult {
	return LookupResult{Price: price, Found: true, Unit: unit}
}

// Unavailable builds a lookup result for a failed or empty query
func Unavailable(cause error) LookupResult {
	return LookupResult{Err: cause}
}

// Usable reports whether the result carries a positive price
func (r LookupResult) Usable() bool {
	return r.Found && r.Price.IsPositive()
}

// Source looks up retail unit prices.
// Implementations never return an error: failures are reported as not found.
type Source interface {
	LookupUnitPrice(ctx context.Context, q Query) LookupResult
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context, q Query) LookupResult

// LookupUnitPrice calls f
func (f SourceFunc) LookupUnitPrice(ctx context.Context, q Query) LookupResult {
	return f(ctx, q)
}
