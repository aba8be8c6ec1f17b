package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/status"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYMENTS_ENV", "")
	t.Setenv("PAYMENTS_SESSION_EXPIRATION", "")
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, EnvSandbox, cfg.Payments.Environment)
	assert.Equal(t, 10*time.Minute, cfg.Payments.Expiration)
	assert.Equal(t, cfg.GetNet.SandboxURL, cfg.GetNetBaseURL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAYMENTS_ENV", "PRODUCTION")
	t.Setenv("PAYMENTS_HTTP_TIMEOUT", "30")
	t.Setenv("PAYMENTS_SESSION_EXPIRATION", "5m")
	t.Setenv("PAYMENTS_DEFAULT_PROVIDER", "NetGet")
	t.Setenv("NETGET_PRODUCTION_URL", "https://api.netget.test")
	t.Setenv("GETNET_REQUIRE_SIGNATURE", "true")
	cfg := Load()

	assert.False(t, cfg.Sandbox())
	assert.Equal(t, 30*time.Second, cfg.Payments.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Payments.Expiration)
	assert.Equal(t, "netget", cfg.Payments.DefaultProvider)
	assert.Equal(t, "https://api.netget.test", cfg.NetGetBaseURL())
	assert.True(t, cfg.GetNet.RequireSignature)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Payments.DefaultProvider = "getnet"
	cfg.Payments.Environment = EnvSandbox
	cfg.GetNet.Login = ""
	cfg.GetNet.Secret = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GETNET_LOGIN")

	cfg.GetNet.Login = "login"
	cfg.GetNet.Secret = "secret"
	require.NoError(t, cfg.Validate())

	cfg.Payments.Environment = "staging"
	cfg.Payments.DefaultProvider = "paypal"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENTS_ENV")
	assert.Contains(t, err.Error(), "paypal")
}

func TestLoadCatalogDefaults(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	n, err := cat.Normalizer()
	require.NoError(t, err)
	assert.Equal(t, status.BucketSuccess, n.Normalize("approved").Bucket)

	prices, err := cat.PriceTable()
	require.NoError(t, err)
	assert.Contains(t, prices, domain.UserTypeApoderado)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
status_tokens:
  success: [abonado]
  failure: [reversado]
prices:
  apoderado:
    almuerzo: 6000
    colacion: 2500
`), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	n, err := cat.Normalizer()
	require.NoError(t, err)
	assert.Equal(t, status.BucketSuccess, n.Normalize("ABONADO").Bucket)
	assert.Equal(t, status.BucketFailure, n.Normalize("reversado").Bucket)
	assert.Equal(t, status.BucketSuccess, n.Normalize("APPROVED").Bucket)

	prices, err := cat.PriceTable()
	require.NoError(t, err)
	assert.Equal(t, int64(6000), prices[domain.UserTypeApoderado].Almuerzo)
	assert.NotContains(t, prices, domain.UserTypeFuncionario)
}

func TestLoadCatalogRejectsOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("status_tokens:\n  failure: [approved]\n"), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	_, err = cat.Normalizer()
	require.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
