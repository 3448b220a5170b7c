package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
service_name = "pricing"
environment = "test"

[http]
port = 18080

[database]
driver = "postgres"
dsn = "host=localhost user=pricing dbname=pricing sslmode=disable"

[kafka]
enabled = true
brokers = ["localhost:9092"]
topic = "pricing-events"

[pricing]
max_steps = 200
result_cache_ttl = "30s"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricing.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 18080, cfg.HTTP.Port)
	assert.Equal(t, 50051, cfg.GRPC.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 200, cfg.Pricing.MaxSteps)
	assert.Equal(t, 4, cfg.Pricing.BatchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Pricing.ResultCacheTTL)
	assert.Equal(t, "0.0.0.0:18080", cfg.HTTP.Addr())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_PRICING_MAX_STEPS", "25")
	t.Setenv("APP_DATABASE_DSN", "user:pass@tcp(db:3306)/pricing")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Pricing.MaxSteps)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "user:pass@tcp(db:3306)/pricing", cfg.Database.DSN)
	assert.Equal(t, 15*time.Minute, cfg.Pricing.ResultCacheTTL)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing dsn", `service_name = "pricing"`},
		{"bad driver", "[database]\ndriver = \"oracle\"\ndsn = \"x\""},
		{"steps above engine limit", "[database]\ndsn = \"x\"\n[pricing]\nmax_steps = 1000"},
		{"zero steps", "[database]\ndsn = \"x\"\n[pricing]\nmax_steps = 0"},
		{"kafka without brokers", "[database]\ndsn = \"x\"\n[kafka]\nenabled = true"},
		{"bad port", "[database]\ndsn = \"x\"\n[http]\nport = 70000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}
