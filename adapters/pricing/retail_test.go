package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd-cost/core/pricing"
	"avd-cost/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *RetailClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultRetailConfig()
	cfg.Endpoint = server.URL
	cfg.HTTPTimeout = 2 * time.Second
	return NewRetailClient(cfg, nil)
}

func storageQuery() pricing.Query {
	return pricing.DefaultTarget().StorageQuery()
}

func TestRetailClient_SendsPinnedQuery(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Items":[]}`))
	})

	client.LookupUnitPrice(context.Background(), storageQuery())
	require.NotNil(t, got)

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "2023-01-01-preview", got.URL.Query().Get("api-version"))
	assert.Equal(t, "USD", got.URL.Query().Get("currencyCode"))
	assert.Equal(t, storageQuery().Filter(), got.URL.Query().Get("$filter"))
	assert.NotContains(t, got.URL.RawQuery, "+", "spaces must be escaped as %20")
}

func TestRetailClient_URL(t *testing.T) {
	client := NewRetailClient(DefaultRetailConfig(), nil)
	q := pricing.NewQuery(pricing.CategoryStorage).Where("productName", "Premium Files")

	raw := client.URL(q)
	assert.True(t, strings.HasPrefix(raw, DefaultRetailEndpoint+"?api-version=2023-01-01-preview&currencyCode=USD&$filter="))
	assert.Contains(t, raw, "productName%20eq%20%27Premium%20Files%27")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "productName eq 'Premium Files'", parsed.Query().Get("$filter"))
}

func TestRetailClient_FirstItemWins(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"BillingCurrency": "USD",
			"Items": [
				{"retailPrice": 0.192, "unitOfMeasure": "1 GiB/Month", "productName": "Premium Files", "skuName": "Premium LRS"},
				{"retailPrice": 0.5, "unitOfMeasure": "1 GiB/Month"}
			],
			"Count": 2
		}`))
	})

	res := client.LookupUnitPrice(context.Background(), storageQuery())
	require.True(t, res.Found)
	assert.Equal(t, "0.192", res.Price.String())
	assert.Equal(t, "1 GiB/Month", res.Unit)
	assert.Equal(t, "Premium Files", res.Product)
	assert.Equal(t, "Premium LRS", res.SKU)
	assert.NoError(t, res.Err)
}

func TestRetailClient_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"Error":{"Code":"BadRequest"}}`, http.StatusBadRequest)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"Items": [`))
			},
		},
		{
			name: "empty items",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"Items": [], "Count": 0}`))
			},
		},
		{
			name: "missing items",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			res := client.LookupUnitPrice(context.Background(), storageQuery())
			assert.False(t, res.Found)
			assert.True(t, res.Price.IsZero())
			assert.True(t, errors.IsType(res.Err, errors.TypeLookupUnavailable), "err = %v", res.Err)
		})
	}
}

func TestRetailClient_TransportErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	cfg := DefaultRetailConfig()
	cfg.Endpoint = endpoint
	res := NewRetailClient(cfg, nil).LookupUnitPrice(context.Background(), storageQuery())

	assert.False(t, res.Found)
	assert.True(t, errors.IsType(res.Err, errors.TypeLookupUnavailable))
}

func TestRetailClient_ContextTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := client.LookupUnitPrice(ctx, storageQuery())
	assert.False(t, res.Found)
	assert.Less(t, time.Since(start), time.Second)
}
