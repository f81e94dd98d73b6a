// Package pricing - Pricing constants, retail query model and lookup contract
package pricing

import (
	"github.com/shopspring/decimal"

	"avd-cost/core/types"
	"avd-cost/internal/errors"
)

// Constants are the business constants of a price calculation.
// A Constants value is built once at start-up and never mutated afterwards.
type Constants struct {
	// Margin is the multiplier applied to the gross platform cost
	Margin decimal.Decimal

	// AutoscaleFactor is the average share of VMs running over a month
	AutoscaleFactor decimal.Decimal

	// StoragePerUserGB is the profile storage footprint of one user
	StoragePerUserGB decimal.Decimal

	// UsersPerVM is how many users share one session host
	UsersPerVM int

	// HoursPerMonth converts hourly consumption prices to monthly prices
	HoursPerMonth decimal.Decimal

	// PrivateEndpoints is the minimum number of private network endpoints
	PrivateEndpoints int

	// PrivateEndpointCost is the monthly cost of one private endpoint
	PrivateEndpointCost decimal.Decimal

	// SecurityCostPerVM is the monthly endpoint-security charge per VM
	SecurityCostPerVM decimal.Decimal

	// ComputeFallbackMonthly is the monthly VM price used when the lookup fails
	ComputeFallbackMonthly decimal.Decimal

	// StorageFallbackPerGB is the per-GB storage price used when the lookup fails or is implausible
	StorageFallbackPerGB decimal.Decimal

	// StorageMaxPerGB is the highest per-GB storage price accepted from a lookup
	StorageMaxPerGB decimal.Decimal

	// Currency of every price
	Currency types.Currency

	// BillingUnit labels the final price
	BillingUnit string
}

// DefaultConstants returns the production constants
func DefaultConstants() Constants {
	return Constants{
		Margin:                 decimal.RequireFromString("1.30"),
		AutoscaleFactor:        decimal.RequireFromString("0.60"),
		StoragePerUserGB:       decimal.NewFromInt(15),
		UsersPerVM:             4,
		HoursPerMonth:          decimal.NewFromInt(730),
		PrivateEndpoints:       2,
		PrivateEndpointCost:    decimal.RequireFromString("9.30"),
		SecurityCostPerVM:      decimal.RequireFromString("15.00"),
		ComputeFallbackMonthly: decimal.RequireFromString("120.00"),
		StorageFallbackPerGB:   decimal.RequireFromString("0.16"),
		StorageMaxPerGB:        decimal.RequireFromString("1.0"),
		Currency:               types.CurrencyUSD,
		BillingUnit:            "user/month",
	}
}

// Validate rejects constants that would make the calculation meaningless
func (c Constants) Validate() error {
	switch {
	case !c.Margin.IsPositive():
		return errors.Config("margin must be positive")
	case c.AutoscaleFactor.IsNegative() || c.AutoscaleFactor.GreaterThan(decimal.NewFromInt(1)):
		return errors.Config("autoscale factor must be between 0 and 1")
	case c.StoragePerUserGB.IsNegative():
		return errors.Config("storage per user must not be negative")
	case c.UsersPerVM <= 0:
		return errors.Config("users per VM must be positive")
	case !c.HoursPerMonth.IsPositive():
		return errors.Config("hours per month must be positive")
	case c.PrivateEndpoints < 0:
		return errors.Config("private endpoint count must not be negative")
	case c.PrivateEndpointCost.IsNegative() || c.SecurityCostPerVM.IsNegative():
		return errors.Config("fixed costs must not be negative")
	case !c.ComputeFallbackMonthly.IsPositive() || !c.StorageFallbackPerGB.IsPositive():
		return errors.Config("fallback prices must be positive")
	case c.StorageFallbackPerGB.GreaterThan(c.StorageMaxPerGB):
		return errors.Config("storage fallback price exceeds the storage price ceiling")
	case c.Currency == "":
		return errors.Config("currency is required")
	}
	return nil
}

// VMsRequired returns ceil(users / UsersPerVM); it is at least 1 for users >= 1
func (c Constants) VMsRequired(users int) int {
	return (users + c.UsersPerVM - 1) / c.UsersPerVM
}
