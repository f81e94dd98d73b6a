// Package engine provides the price estimation engine.
// CLI and HTTP are thin wrappers around this engine.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"avd-cost/core/pricing"
	"avd-cost/core/types"
	"avd-cost/internal/errors"
)

// DefaultLookupTimeout bounds a single retail price lookup
const DefaultLookupTimeout = 5 * time.Second

// Estimator computes the monthly per-user price of the desktop offering.
// It holds no per-request state and is safe for concurrent use.
type Estimator struct {
	source        pricing.Source
	constants     pricing.Constants
	target        pricing.Target
	lookupTimeout time.Duration
	logger        *zap.Logger
}

// Option configures an Estimator
type Option func(*Estimator)

// WithLogger sets the logger used for pricing diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLookupTimeout bounds each retail lookup; zero disables the bound
func WithLookupTimeout(d time.Duration) Option {
	return func(e *Estimator) {
		e.lookupTimeout = d
	}
}

// New creates an Estimator
func New(source pricing.Source, constants pricing.Constants, target pricing.Target, opts ...Option) *Estimator {
	e := &Estimator{
		source:        source,
		constants:     constants,
		target:        target,
		lookupTimeout: DefaultLookupTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Constants returns the constants the estimator prices with
func (e *Estimator) Constants() pricing.Constants {
	return e.constants
}

// Estimate prices one request.
// Lookup failures never fail the estimate; they are replaced by fallback prices.
// The only error returned is a TypeInternal error, and a nil Breakdown comes with it.
func (e *Estimator) Estimate(ctx context.Context, params Params) (result *Breakdown, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("price calculation panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result = nil
			err = errors.Internal("price calculation failed", fmt.Errorf("panic: %v", r))
		}
	}()

	p := params.Normalize()
	c := e.constants
	vms := c.VMsRequired(p.Users)
	users := decimal.NewFromInt(int64(p.Users))

	computeRes, storageRes, err := e.lookupAll(ctx)
	if err != nil {
		e.logger.Error("price lookup failed unexpectedly", zap.Error(err))
		return nil, errors.Internal("price calculation failed", err)
	}

	// Compute
	computeUnit, computeSource := e.computeUnitMonthly(computeRes)
	computeTotal := computeUnit.
		Mul(decimal.NewFromInt(int64(vms))).
		Mul(c.AutoscaleFactor)

	// Storage
	storageGB := users.Mul(c.StoragePerUserGB)
	storageUnit, storageSource := e.storageUnitPerGB(storageRes)
	storageTotal := storageGB.Mul(storageUnit)

	// Fixed network and security costs
	privateLink := decimal.NewFromInt(int64(c.PrivateEndpoints)).Mul(c.PrivateEndpointCost)
	defender := decimal.NewFromInt(int64(vms)).Mul(c.SecurityCostPerVM)

	gross := computeTotal.Add(storageTotal).Add(privateLink).Add(defender)
	withMargin := gross.Mul(c.Margin)
	perUser := withMargin.DivRound(users, 16).Round(2)

	e.logger.Debug("price calculated",
		zap.Int("users", p.Users),
		zap.Int("vms", vms),
		zap.String("tier", p.Tier),
		zap.Stringer("gross", gross),
		zap.Stringer("per_user", perUser),
	)

	return &Breakdown{
		PricePerUser:     perUser,
		Currency:         c.Currency,
		Per:              c.BillingUnit,
		Users:            p.Users,
		VMs:              vms,
		Tier:             p.Tier,
		GrossCost:        gross,
		TotalWithMargin:  withMargin,
		ComputeCost:      computeTotal,
		StorageCost:      storageTotal,
		PrivateLinkCost:  privateLink,
		DefenderCost:     defender,
		StorageGB:        storageGB,
		ComputeUnitPrice: computeUnit,
		ComputeSource:    computeSource,
		StorageUnitPrice: storageUnit,
		StorageSource:    storageSource,
	}, nil
}

// lookupAll runs the compute and storage lookups concurrently.
// A panicking source is reported as an error; the lookups themselves never fail.
func (e *Estimator) lookupAll(ctx context.Context) (compute, storage pricing.LookupResult, err error) {
	var g errgroup.Group
	g.Go(func() error {
		var lerr error
		compute, lerr = e.lookup(ctx, e.target.ComputeQuery())
		return lerr
	})
	g.Go(func() error {
		var lerr error
		storage, lerr = e.lookup(ctx, e.target.StorageQuery())
		return lerr
	})
	err = g.Wait()
	return compute, storage, err
}

func (e *Estimator) lookup(ctx context.Context, q pricing.Query) (res pricing.LookupResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s lookup panicked: %v", q.Category, r)
		}
	}()

	if e.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.lookupTimeout)
		defer cancel()
	}
	return e.source.LookupUnitPrice(ctx, q), nil
}

// computeUnitMonthly converts a compute lookup into a monthly price per VM.
// The fallback is already monthly and is never scaled by hours.
func (e *Estimator) computeUnitMonthly(res pricing.LookupResult) (decimal.Decimal, types.PriceSource) {
	c := e.constants
	if !res.Usable() {
		e.logger.Warn("VM price not found, using fallback monthly price",
			zap.String("policy", string(e.target.ComputePolicy)),
			zap.String("sku", e.target.ComputeSKU),
			zap.Stringer("fallback", c.ComputeFallbackMonthly),
			zap.Error(res.Err),
		)
		return c.ComputeFallbackMonthly, types.SourceFallback
	}

	if e.target.ComputePolicy == pricing.PolicyReservation {
		months, err := e.target.ReservationMonths()
		if err != nil {
			// Target.Validate rejects unknown terms; reaching this is a wiring bug.
			panic(err)
		}
		return res.Price.DivRound(decimal.NewFromInt(int64(months)), 16), types.SourceRetail
	}
	return res.Price.Mul(c.HoursPerMonth), types.SourceRetail
}

// storageUnitPerGB applies the storage sanity gate to a lookup.
// Missing, non-positive and implausibly high prices are replaced by the fallback.
func (e *Estimator) storageUnitPerGB(res pricing.LookupResult) (decimal.Decimal, types.PriceSource) {
	c := e.constants
	switch {
	case !res.Usable():
		e.logger.Info("storage price not found, using fallback per-GB price",
			zap.Stringer("fallback", c.StorageFallbackPerGB),
			zap.Stringer("returned", res.Price),
			zap.Error(res.Err),
		)
		return c.StorageFallbackPerGB, types.SourceFallback
	case res.Price.GreaterThan(c.StorageMaxPerGB):
		e.logger.Info("storage price rejected, using fallback per-GB price",
			zap.Stringer("fallback", c.StorageFallbackPerGB),
			zap.Stringer("returned", res.Price),
			zap.Error(errors.ImplausiblePrice(string(pricing.CategoryStorage), res.Price.String())),
		)
		return c.StorageFallbackPerGB, types.SourceFallback
	}

	e.logger.Info("storage price found",
		zap.Stringer("price", res.Price),
		zap.String("unit", res.Unit),
	)
	return res.Price, types.SourceRetail
}
