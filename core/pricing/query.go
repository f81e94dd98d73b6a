package pricing

import (
	"fmt"
	"strings"

	"avd-cost/internal/errors"
)

// Category is a cost category that is priced by a retail lookup
type Category string

const (
	CategoryCompute Category = "compute"
	CategoryStorage Category = "storage"
)

// Operator is a filter comparison operator of the retail pricing query dialect
type Operator string

const (
	// OpEq is equality
	OpEq Operator = "eq"
	// OpNe is inequality
	OpNe Operator = "ne"
)

// Clause is one field/operator/value triple of a filter
type Clause struct {
	Field string
	Op    Operator
	Value string
}

// String renders the clause with an OData string literal
func (c Clause) String() string {
	return fmt.Sprintf("%s %s '%s'", c.Field, c.Op, strings.ReplaceAll(c.Value, "'", "''"))
}

// Query is a retail pricing filter for one cost category.
// Clauses are joined with "and" in insertion order.
type Query struct {
	Category Category
	Clauses  []Clause
}

// NewQuery starts an empty query for a category
func NewQuery(category Category) Query {
	return Query{Category: category}
}

// Where returns a copy of q with an equality clause appended
func (q Query) Where(field, value string) Query {
	return q.with(Clause{Field: field, Op: OpEq, Value: value})
}

// WhereNot returns a copy of q with an inequality clause appended
func (q Query) WhereNot(field, value string) Query {
	return q.with(Clause{Field: field, Op: OpNe, Value: value})
}

func (q Query) with(c Clause) Query {
	clauses := make([]Clause, len(q.Clauses), len(q.Clauses)+1)
	copy(clauses, q.Clauses)
	q.Clauses = append(clauses, c)
	return q
}

// Filter renders the filter expression, not yet URL-escaped
func (q Query) Filter() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " and ")
}

// String implements fmt.Stringer
func (q Query) String() string {
	return q.Filter()
}

// ComputePolicy selects which retail price type is used for session hosts
type ComputePolicy string

const (
	// PolicyConsumption prices VMs from the hourly pay-as-you-go rate
	PolicyConsumption ComputePolicy = "consumption"

	// PolicyReservation prices VMs from a reserved instance term price
	PolicyReservation ComputePolicy = "reservation"
)

// Target describes what is being priced: region, VM size and storage product
type Target struct {
	// Region is the ARM region name, e.g. "westeurope"
	Region string

	// ComputeSKU is the ARM VM size of a session host
	ComputeSKU string

	// ComputeProduct optionally pins the retail product name, which
	// separates Windows from Linux meters of the same size
	ComputeProduct string

	// ComputeExcludedVariants are meter name suffixes never priced on
	// consumption, e.g. "Spot" excludes "D4s v5 Spot"
	ComputeExcludedVariants []string

	// ComputePolicy selects consumption or reservation pricing
	ComputePolicy ComputePolicy

	// ReservationTerm is "1 Year" or "3 Years"; used with PolicyReservation
	ReservationTerm string

	// StorageProduct is the retail product name of the profile share
	StorageProduct string

	// StorageSKU is the retail SKU name of the profile share
	StorageSKU string

	// StorageUnit is the unit of measure of a per-GB storage price
	StorageUnit string
}

// DefaultTarget prices D4s v5 session hosts and Premium Files profiles in West Europe
func DefaultTarget() Target {
	return Target{
		Region:          "westeurope",
		ComputeSKU:              "Standard_D4s_v5",
		ComputeExcludedVariants: DefaultExcludedVariants(),
		ComputePolicy:           PolicyConsumption,
		ReservationTerm:         "3 Years",
		StorageProduct:          "Premium Files",
		StorageSKU:              "Premium LRS",
		StorageUnit:             "1 GiB/Month",
	}
}

// DefaultExcludedVariants are the discounted consumption meters that share
// a size with the regular pay-as-you-go meter
func DefaultExcludedVariants() []string {
	return []string{"Spot", "Low Priority"}
}

// Validate checks the target is complete
func (t Target) Validate() error {
	if t.Region == "" {
		return errors.Config("region is required")
	}
	if t.ComputeSKU == "" {
		return errors.Config("compute SKU is required")
	}
	switch t.ComputePolicy {
	case PolicyConsumption:
	case PolicyReservation:
		if _, err := t.ReservationMonths(); err != nil {
			return err
		}
	default:
		return errors.Config(fmt.Sprintf("unknown compute policy %q", t.ComputePolicy))
	}
	if t.StorageProduct == "" {
		return errors.Config("storage product is required")
	}
	return nil
}

// ReservationMonths returns the length of the reservation term in months
func (t Target) ReservationMonths() (int, error) {
	switch t.ReservationTerm {
	case "1 Year":
		return 12, nil
	case "3 Years":
		return 36, nil
	case "5 Years":
		return 60, nil
	}
	return 0, errors.Config(fmt.Sprintf("unknown reservation term %q", t.ReservationTerm))
}

// ComputeQuery builds the session host price filter for the target
func (t Target) ComputeQuery() Query {
	q := NewQuery(CategoryCompute).
		Where("serviceName", "Virtual Machines").
		Where("armRegionName", t.Region).
		Where("armSkuName", t.ComputeSKU)
	if t.ComputeProduct != "" {
		q = q.Where("productName", t.ComputeProduct)
	}

	if t.ComputePolicy == PolicyReservation {
		return q.Where("priceType", "Reservation").
			Where("reservationTerm", t.ReservationTerm)
	}

	q = q.Where("priceType", "Consumption")
	meter := MeterBase(t.ComputeSKU)
	for _, variant := range t.ComputeExcludedVariants {
		q = q.WhereNot("meterName", meter+" "+variant)
	}
	return q
}

// MeterBase derives the retail meter name of a VM size from its ARM name,
// e.g. "Standard_D4s_v5" becomes "D4s v5"
func MeterBase(sku string) string {
	for _, prefix := range []string{"Standard_", "Basic_"} {
		if rest, ok := strings.CutPrefix(sku, prefix); ok {
			sku = rest
			break
		}
	}
	return strings.ReplaceAll(sku, "_", " ")
}

// StorageQuery builds the per-GB profile storage price filter for the target
func (t Target) StorageQuery() Query {
	q := NewQuery(CategoryStorage).
		Where("serviceName", "Storage").
		Where("armRegionName", t.Region).
		Where("productName", t.StorageProduct)
	if t.StorageSKU != "" {
		q = q.Where("skuName", t.StorageSKU)
	}
	if t.StorageUnit != "" {
		q = q.Where("unitOfMeasure", t.StorageUnit)
	}
	return q
}
