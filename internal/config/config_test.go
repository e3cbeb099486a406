package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamscao/certregistry/internal/config"
	"github.com/adamscao/certregistry/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, registry.GeneratorSequence, cfg.IDs.Generator)

	// every provider the registry knows is accepted
	for _, name := range []string{registry.GeneratorSequence, registry.GeneratorULID} {
		cfg.IDs.Generator = name
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestLoad(t *testing.T) {
	cases := []struct {
		desc    string
		content string
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			desc: "sqlite store",
			content: `
server:
  listen_addr: "127.0.0.1:9000"
store:
  driver: sqlite
  path: /var/lib/certregistry/certs.db
ids:
  generator: ulid
logging:
  level: debug
  format: text
`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
				assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
				assert.Equal(t, "/var/lib/certregistry/certs.db", cfg.Store.Path)
				assert.Equal(t, "ulid", cfg.IDs.Generator)
				assert.Equal(t, "text", cfg.Logging.Format)
				// untouched keys keep defaults
				assert.Equal(t, "10s", cfg.Server.ShutdownTimeout)
				assert.True(t, cfg.Metrics.Enabled)
			},
		},
		{
			desc:    "sqlite store without path",
			content: "store:\n  driver: sqlite\n",
			wantErr: true,
		},
		{
			desc:    "unknown store driver",
			content: "store:\n  driver: redis\n",
			wantErr: true,
		},
		{
			desc:    "unknown id generator",
			content: "ids:\n  generator: uuid\n",
			wantErr: true,
		},
		{
			desc:    "invalid log level",
			content: "logging:\n  level: verbose\n",
			wantErr: true,
		},
		{
			desc:    "invalid shutdown timeout",
			content: "server:\n  shutdown_timeout: soon\n",
			wantErr: true,
		},
		{
			desc:    "negative shutdown timeout",
			content: "server:\n  shutdown_timeout: -5s\n",
			wantErr: true,
		},
		{
			desc:    "metrics without namespace",
			content: "metrics:\n  enabled: true\n  namespace: \"\"\n",
			wantErr: true,
		},
		{
			desc:    "tracing ratio out of range",
			content: "tracing:\n  endpoint: localhost:4318\n  ratio: 1.5\n",
			wantErr: true,
		},
		{
			desc:    "tracing endpoint",
			content: "tracing:\n  endpoint: localhost:4318\n  insecure: true\n",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "localhost:4318", cfg.Tracing.Endpoint)
				assert.True(t, cfg.Tracing.Insecure)
				assert.Equal(t, 1.0, cfg.Tracing.Ratio)
			},
		},
		{
			desc:    "malformed yaml",
			content: "server: [",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		cfg, err := config.Load(writeConfig(t, tc.content))
		if tc.wantErr {
			assert.Error(t, err, tc.desc)
			continue
		}
		require.NoError(t, err, tc.desc)
		tc.check(t, cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadWithEnv(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")

	t.Setenv("CERTREG_LISTEN_ADDR", ":9999")
	t.Setenv("CERTREG_STORE", "sqlite")
	t.Setenv("CERTREG_DB_PATH", "/tmp/certs.db")
	t.Setenv("CERTREG_LOG_LEVEL", "warn")
	t.Setenv("CERTREG_METRICS_ENABLED", "false")

	cfg, err := config.LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.ListenAddr)
	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/certs.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithEnvInvalidOverride(t *testing.T) {
	t.Setenv("CERTREG_STORE", "sqlite")

	_, err := config.LoadWithEnv("")
	assert.Error(t, err, "sqlite override without a path must fail validation")
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		desc    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{desc: "days", input: "90d", want: 90 * 24 * time.Hour},
		{desc: "hours", input: "12h", want: 12 * time.Hour},
		{desc: "seconds", input: "30s", want: 30 * time.Second},
		{desc: "invalid days", input: "xd", wantErr: true},
		{desc: "garbage", input: "soon", wantErr: true},
		{desc: "zero days", input: "0d", want: 0},
		{desc: "fractional days", input: "1.5d", wantErr: true},
		{desc: "trailing garbage in days", input: "10xd", wantErr: true},
		{desc: "negative days", input: "-3d", wantErr: true},
		{desc: "negative hours", input: "-1h", wantErr: true},
		{desc: "days overflowing duration", input: "999999999999d", wantErr: true},
		{desc: "largest day count", input: "106751d", want: 106751 * 24 * time.Hour},
	}

	for _, tc := range cases {
		got, err := config.ParseDuration(tc.input)
		if tc.wantErr {
			assert.Error(t, err, tc.desc)
			continue
		}
		require.NoError(t, err, tc.desc)
		assert.Equal(t, tc.want, got, tc.desc)
	}
}
