package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BLUEPRINT_DB_HOST", "")
	t.Setenv("ORDER_SERVICE_URL", "")
	t.Setenv("CHECKOUT_TIMEOUT", "")
	t.Setenv("REQUEST_TIMEOUT_MS", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8083/api", cfg.OrderServiceURL)
	assert.Equal(t, "stripe", cfg.PaymentMethod)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.CheckoutTimeout)
	assert.False(t, cfg.DB.Enabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ORDER_SERVICE_URL", "http://orders:9000/api/")
	t.Setenv("REQUEST_TIMEOUT_MS", "250")
	t.Setenv("CHECKOUT_TIMEOUT", "")
	t.Setenv("CORS_ORIGINS", "http://a, http://b ,")
	t.Setenv("STUCK_AFTER", "2m")
	t.Setenv("BLUEPRINT_DB_HOST", "db")
	t.Setenv("BLUEPRINT_DB_USERNAME", "u")
	t.Setenv("BLUEPRINT_DB_PASSWORD", "p")
	t.Setenv("BLUEPRINT_DB_DATABASE", "shop")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "http://orders:9000/api", cfg.OrderServiceURL)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.CheckoutTimeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.StuckAfter)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, "postgres://u:p@db:5432/shop?sslmode=disable&search_path=public", cfg.DB.URL())
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("PAYMENT_METHOD", "")
	os.Unsetenv("PAYMENT_METHOD")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAYMENT_METHOD=card\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PAYMENT_METHOD") })

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "card", cfg.PaymentMethod)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_MS", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}
