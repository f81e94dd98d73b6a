package engine

import (
	"github.com/shopspring/decimal"

	"avd-cost/core/types"
)

const (
	// DefaultUsers is used when the request carries no usable user count
	DefaultUsers = 10

	// DefaultTier is used when the request carries no tier
	DefaultTier = "Standard"
)

// Params are the caller-supplied inputs of an estimate
type Params struct {
	// Users is the number of desktop users; zero means "not supplied"
	Users int

	// Tier is the service tier. It is carried through but does not affect pricing.
	Tier string
}

// Normalize applies defaults: zero users become DefaultUsers, negative users become 1
func (p Params) Normalize() Params {
	if p.Users == 0 {
		p.Users = DefaultUsers
	}
	if p.Users < 1 {
		p.Users = 1
	}
	if p.Tier == "" {
		p.Tier = DefaultTier
	}
	return p
}

// Breakdown is the result of an estimate.
// Costs are monthly and unrounded except PricePerUser.
type Breakdown struct {
	PricePerUser decimal.Decimal
	Currency     types.Currency
	Per          string

	Users int
	VMs   int
	Tier  string

	GrossCost       decimal.Decimal
	TotalWithMargin decimal.Decimal
	ComputeCost     decimal.Decimal
	StorageCost     decimal.Decimal
	PrivateLinkCost decimal.Decimal
	DefenderCost    decimal.Decimal

	// StorageGB is the total provisioned profile storage
	StorageGB decimal.Decimal

	// ComputeUnitPrice is the monthly price of one VM actually used
	ComputeUnitPrice decimal.Decimal
	ComputeSource    types.PriceSource

	// StorageUnitPrice is the per-GB price actually used
	StorageUnitPrice decimal.Decimal
	StorageSource    types.PriceSource
}
