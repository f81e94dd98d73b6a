package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avd-cost/api/v1/types"
	"avd-cost/internal/config"
)

// runCLI executes the root command against a retail endpoint that is always down
func runCLI(t *testing.T, args ...string) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "avd-cost.json")
	body := `{"retail": {"endpoint": "` + srv.URL + `", "cache_ttl_seconds": 0}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	t.Cleanup(func() {
		config.Set(config.Default())
		cfgFile, verbose = "", false
		quoteUsers, quoteTier, quoteFormat = 10, "Standard", "text"
		configFormat = "yaml"
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", path))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestQuote_Text(t *testing.T) {
	out := runCLI(t, "quote", "--users", "10")

	assert.Contains(t, out, "39.47 USD")
	assert.Contains(t, out, "fallback")
	assert.Regexp(t, `Margin\s+x1\.30`, out)
	assert.Regexp(t, `Autoscale factor\s+0\.60`, out)
	assert.Regexp(t, `Users per VM\s+4`, out)
}

func TestQuote_JSON(t *testing.T) {
	out := runCLI(t, "quote", "--users", "4", "--tier", "Premium", "--format", "json")

	var resp types.PriceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 4, resp.Details.Users)
	assert.Equal(t, 1, resp.Details.VMs)
	assert.Equal(t, "Premium", resp.Details.Tier)
	assert.Equal(t, "USD", resp.Currency)
}

func TestConfigShow(t *testing.T) {
	out := runCLI(t, "config", "show", "--format", "json")

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 0, cfg.Retail.CacheTTLSeconds)
	assert.Equal(t, "westeurope", cfg.Target.Region)

	out = runCLI(t, "config", "show", "--format", "yaml")
	assert.Contains(t, out, "storage_fallback_per_gb: 0.16")
}

func TestVersion(t *testing.T) {
	assert.Contains(t, runCLI(t, "version"), "avd-cost version "+Version)
}
