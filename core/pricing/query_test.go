package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd-cost/internal/errors"
)

func TestQueryFilter(t *testing.T) {
	q := NewQuery(CategoryStorage).
		Where("serviceName", "Storage").
		Where("armRegionName", "westeurope").
		WhereNot("meterName", "O'Brien Spot")

	want := "serviceName eq 'Storage' and armRegionName eq 'westeurope' and meterName ne 'O''Brien Spot'"
	assert.Equal(t, want, q.Filter())
	assert.Equal(t, want, q.String())
	assert.Equal(t, CategoryStorage, q.Category)
}

func TestQueryWhereDoesNotAlias(t *testing.T) {
	base := NewQuery(CategoryCompute).Where("serviceName", "Virtual Machines")
	a := base.Where("priceType", "Consumption")
	b := base.Where("priceType", "Reservation")

	assert.Len(t, base.Clauses, 1)
	assert.Contains(t, a.Filter(), "Consumption")
	assert.Contains(t, b.Filter(), "Reservation")
	assert.NotContains(t, a.Filter(), "Reservation")
}

func TestTargetComputeQuery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Target)
		want   string
	}{
		{
			name:   "consumption",
			mutate: func(*Target) {},
			want: "serviceName eq 'Virtual Machines' and armRegionName eq 'westeurope' and " +
				"armSkuName eq 'Standard_D4s_v5' and priceType eq 'Consumption' and " +
				"meterName ne 'D4s v5 Spot' and meterName ne 'D4s v5 Low Priority'",
		},
		{
			name: "consumption pinned to a product",
			mutate: func(t *Target) {
				t.ComputeSKU = "Standard_E8as_v5"
				t.ComputeProduct = "Virtual Machines Easv5 Series Windows"
				t.ComputeExcludedVariants = []string{"Spot"}
			},
			want: "serviceName eq 'Virtual Machines' and armRegionName eq 'westeurope' and " +
				"armSkuName eq 'Standard_E8as_v5' and productName eq 'Virtual Machines Easv5 Series Windows' and " +
				"priceType eq 'Consumption' and meterName ne 'E8as v5 Spot'",
		},
		{
			name:   "consumption without exclusions",
			mutate: func(t *Target) { t.ComputeExcludedVariants = nil },
			want: "serviceName eq 'Virtual Machines' and armRegionName eq 'westeurope' and " +
				"armSkuName eq 'Standard_D4s_v5' and priceType eq 'Consumption'",
		},
		{
			name: "reservation",
			mutate: func(t *Target) {
				t.ComputePolicy = PolicyReservation
				t.ReservationTerm = "1 Year"
			},
			want: "serviceName eq 'Virtual Machines' and armRegionName eq 'westeurope' and " +
				"armSkuName eq 'Standard_D4s_v5' and priceType eq 'Reservation' and reservationTerm eq '1 Year'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := DefaultTarget()
			tt.mutate(&target)
			q := target.ComputeQuery()
			assert.Equal(t, CategoryCompute, q.Category)
			assert.Equal(t, tt.want, q.Filter())
		})
	}
}

func TestTargetStorageQuery(t *testing.T) {
	q := DefaultTarget().StorageQuery()
	assert.Equal(t, CategoryStorage, q.Category)
	assert.Equal(t,
		"serviceName eq 'Storage' and armRegionName eq 'westeurope' and productName eq 'Premium Files' and "+
			"skuName eq 'Premium LRS' and unitOfMeasure eq '1 GiB/Month'",
		q.Filter())

	bare := DefaultTarget()
	bare.StorageSKU = ""
	bare.StorageUnit = ""
	assert.Equal(t,
		"serviceName eq 'Storage' and armRegionName eq 'westeurope' and productName eq 'Premium Files'",
		bare.StorageQuery().Filter())
}

func TestTargetValidate(t *testing.T) {
	require.NoError(t, DefaultTarget().Validate())

	tests := []struct {
		name   string
		mutate func(*Target)
	}{
		{"no region", func(t *Target) { t.Region = "" }},
		{"no sku", func(t *Target) { t.ComputeSKU = "" }},
		{"unknown policy", func(t *Target) { t.ComputePolicy = "spot" }},
		{"bad term", func(t *Target) { t.ComputePolicy = PolicyReservation; t.ReservationTerm = "2 Years" }},
		{"no storage product", func(t *Target) { t.StorageProduct = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := DefaultTarget()
			tt.mutate(&target)
			err := target.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig))
		})
	}
}

func TestConstantsValidate(t *testing.T) {
	require.NoError(t, DefaultConstants().Validate())

	tests := []struct {
		name   string
		mutate func(*Constants)
	}{
		{"zero margin", func(c *Constants) { c.Margin = decimal.Zero }},
		{"autoscale above one", func(c *Constants) { c.AutoscaleFactor = decimal.RequireFromString("1.5") }},
		{"zero users per vm", func(c *Constants) { c.UsersPerVM = 0 }},
		{"zero hours", func(c *Constants) { c.HoursPerMonth = decimal.Zero }},
		{"negative endpoints", func(c *Constants) { c.PrivateEndpoints = -1 }},
		{"zero compute fallback", func(c *Constants) { c.ComputeFallbackMonthly = decimal.Zero }},
		{"storage fallback above ceiling", func(c *Constants) { c.StorageFallbackPerGB = decimal.NewFromInt(2) }},
		{"no currency", func(c *Constants) { c.Currency = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConstants()
			tt.mutate(&c)
			assert.True(t, errors.IsType(c.Validate(), errors.TypeConfig))
		})
	}
}

func TestVMsRequired(t *testing.T) {
	c := DefaultConstants()
	tests := []struct {
		users int
		want  int
	}{
		{1, 1}, {3, 1}, {4, 1}, {5, 2}, {8, 2}, {9, 3}, {10, 3}, {100, 25}, {101, 26},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.VMsRequired(tt.users), "users=%d", tt.users)
	}
}

func TestLookupResultUsable(t *testing.T) {
	assert.True(t, Priced(decimal.RequireFromString("0.16"), "1 GiB/Month").Usable())
	assert.False(t, Priced(decimal.Zero, "1 Hour").Usable())
	assert.True(t, Priced(decimal.Zero, "1 Hour").Found)
	assert.False(t, Unavailable(nil).Usable())
	assert.True(t, Unavailable(nil).Price.IsZero())
}

func TestMeterBase(t *testing.T) {
	tests := map[string]string{
		"Standard_D4s_v5":        "D4s v5",
		"Standard_NV6ads_A10_v5": "NV6ads A10 v5",
		"Basic_A1":               "A1",
		"D2s_v3":                 "D2s v3",
	}
	for sku, want := range tests {
		assert.Equal(t, want, MeterBase(sku), sku)
	}
}
