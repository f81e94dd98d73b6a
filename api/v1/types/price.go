// Package types - Public API DTOs
// This package contains ONLY data transfer objects for the public API.
// NO ENGINE IMPORTS ALLOWED - this is the stable API contract.
package types

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// InternalErrorMessage is the only error text a client ever sees
const InternalErrorMessage = "Internal error while calculating the price. Please try again."

// maxUserCount bounds a decoded user count; larger values are treated as invalid
const maxUserCount = 1e9

// PriceRequest is the public request for POST /api/v1/price
type PriceRequest struct {
	// NumberOfUsers accepts a JSON number or a numeric string
	NumberOfUsers UserCount `json:"numberOfUsers"`

	// Tier is carried through to the response; it does not affect the price
	Tier Tier `json:"tier"`
}

// UserCount is a leniently decoded user count.
// Zero means absent or invalid; the engine substitutes its default.
type UserCount int

// UnmarshalJSON never fails: anything that is not a number or a string with
// a leading integer decodes to zero.
func (u *UserCount) UnmarshalJSON(data []byte) error {
	*u = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*u = UserCount(leadingInt(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil || math.IsNaN(f) || math.Abs(f) > maxUserCount {
			return nil
		}
		*u = UserCount(math.Trunc(f))
	}
	return nil
}

// leadingInt parses an optional sign and the decimal digits that follow
// leading whitespace, ignoring any trailing text. It returns 0 when no digit
// is found or the value is out of range.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n > maxUserCount || n < -maxUserCount {
		return 0
	}
	return int(n)
}

// Tier is a free-form service tier name.
// Non-string values decode to the empty string.
type Tier string

// UnmarshalJSON never fails
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Tier(s)
	return nil
}

// PriceResponse is the public response for POST /api/v1/price
// This struct is the API contract - changes are breaking changes.
type PriceResponse struct {
	// Price per user per month, rounded to cents
	Price float64 `json:"price"`

	// Currency is the currency code (e.g., "USD")
	Currency string `json:"currency"`

	// Per is the billing unit (e.g., "user/month")
	Per string `json:"per"`

	Details PriceDetails `json:"details"`
}

// PriceDetails is the cost breakdown behind a price
type PriceDetails struct {
	Users int    `json:"users"`
	VMs   int    `json:"vms"`
	Tier  string `json:"tier"`

	// CostBrut is the monthly total before margin
	CostBrut        float64 `json:"costBrut"`
	ComputeCost     float64 `json:"computeCost"`
	StorageCost     float64 `json:"storageCost"`
	PrivateLinkCost float64 `json:"privateLinkCost"`
	DefenderCost    float64 `json:"defenderCost"`
	TotalWithMargin float64 `json:"totalWithMargin"`

	// StorageUnitUsed is the per-GB price applied, unrounded
	StorageUnitUsed float64 `json:"storageUnitUsed"`

	// ComputeUnitUsed is the monthly price of one VM applied
	ComputeUnitUsed float64 `json:"computeUnitUsed"`

	// Sources are "retail" or "fallback"
	StoragePriceSource string `json:"storagePriceSource"`
	ComputePriceSource string `json:"computePriceSource"`
}

// ErrorResponse is returned with HTTP 500
type ErrorResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the health and readiness probes
type HealthResponse struct {
	Status string `json:"status"`
}
