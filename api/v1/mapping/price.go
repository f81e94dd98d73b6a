// Package mapping - Explicit mapping from engine to API DTOs
// This is the ONLY place where engine types touch API types.
// Rules:
// - One-way mapping only (engine → API)
// - No mutation of engine results
// - No business logic
package mapping

import (
	"github.com/shopspring/decimal"

	"avd-cost/api/v1/types"
	"avd-cost/core/engine"
)

// MapPriceRequest converts a decoded request into engine parameters.
// Defaults are applied by the engine, not here.
func MapPriceRequest(req types.PriceRequest) engine.Params {
	return engine.Params{
		Users: int(req.NumberOfUsers),
		Tier:  string(req.Tier),
	}
}

// MapPriceResponse maps an engine breakdown to the API response.
// Costs are rounded to cents; the storage unit price is passed through as is.
func MapPriceResponse(b *engine.Breakdown) *types.PriceResponse {
	return &types.PriceResponse{
		Price:    cents(b.PricePerUser),
		Currency: b.Currency.String(),
		Per:      b.Per,
		Details: types.PriceDetails{
			Users:              b.Users,
			VMs:                b.VMs,
			Tier:               b.Tier,
			CostBrut:           cents(b.GrossCost),
			ComputeCost:        cents(b.ComputeCost),
			StorageCost:        cents(b.StorageCost),
			PrivateLinkCost:    cents(b.PrivateLinkCost),
			DefenderCost:       cents(b.DefenderCost),
			TotalWithMargin:    cents(b.TotalWithMargin),
			StorageUnitUsed:    b.StorageUnitPrice.InexactFloat64(),
			ComputeUnitUsed:    cents(b.ComputeUnitPrice),
			StoragePriceSource: b.StorageSource.String(),
			ComputePriceSource: b.ComputeSource.String(),
		},
	}
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
