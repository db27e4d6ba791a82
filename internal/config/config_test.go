package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:7331", c.DashboardURL)
	assert.Equal(t, []string{"POST"}, c.CaptureMethods)
	assert.Equal(t, 0, c.BodyMaxBytes)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "stdout", c.LogOutput)
	assert.Equal(t, 1000, c.StatusTimeoutMs)
	assert.Equal(t, 3000, c.PushTimeoutMs)
	assert.Equal(t, uint(4), c.Delivery.Workers)
	assert.Equal(t, uint(256), c.Delivery.QueueSize)
	assert.Equal(t, 8192, c.TrackerMaxFlows)
	assert.Equal(t, "none", c.ArchiveType)
	assert.Equal(t, "sushify-exchanges", c.ArchiveIndex)
	assert.Equal(t, time.Second, c.StatusTimeout())
	assert.Equal(t, 3*time.Second, c.PushTimeout())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SUSHIFY_DASHBOARD_URL", "http://127.0.0.1:9999")
	t.Setenv("SUSHIFY_CAPTURE_METHODS", "POST,PUT")
	t.Setenv("SUSHIFY_BODY_MAX_BYTES", "65536")
	t.Setenv("SUSHIFY_DELIVERY_WORKERS", "2")
	t.Setenv("SUSHIFY_DELIVERY_QUEUE_SIZE", "32")
	t.Setenv("SUSHIFY_REDACT_HEADERS", "Authorization,X-Api-Key")
	t.Setenv("SUSHIFY_METRICS_ENABLED", "true")
	t.Setenv("SUSHIFY_METRICS_BIND", "127.0.0.1:9312")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9999", c.DashboardURL)
	assert.Equal(t, []string{"POST", "PUT"}, c.CaptureMethods)
	assert.Equal(t, 65536, c.BodyMaxBytes)
	assert.Equal(t, uint(2), c.Delivery.Workers)
	assert.Equal(t, uint(32), c.Delivery.QueueSize)
	assert.Equal(t, []string{"Authorization", "X-Api-Key"}, c.RedactHeaders)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9312", c.Metrics.Bind)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	content := `
dashboard_url: "http://files.example:7331"
log_level: "debug"
archive_type: "stdout"
delivery:
  workers: 8
`
	path := filepath.Join(t.TempDir(), "sushify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv(FileEnv, path)
	t.Setenv("SUSHIFY_DASHBOARD_URL", "http://env.example:7331")

	c, err := Load()
	require.NoError(t, err)

	// Environment wins over the file; the file wins over defaults.
	assert.Equal(t, "http://env.example:7331", c.DashboardURL)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "stdout", c.ArchiveType)
	assert.Equal(t, uint(8), c.Delivery.Workers)
	assert.Equal(t, uint(256), c.Delivery.QueueSize)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFileLoggingRequiresSessionDir(t *testing.T) {
	t.Setenv("SUSHIFY_LOG_OUTPUT", "file")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_dir")

	t.Setenv("SUSHIFY_SESSION_DIR", t.TempDir())

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file", c.LogOutput)
}

func TestProviderBaseURLs(t *testing.T) {
	tests := []struct {
		name     string
		override string
		expected []string
	}{
		{"defaults when unset", "", DefaultProviderBaseURLs},
		{"override replaces the list", "https://llm.internal.example", []string{"https://llm.internal.example"}},
		{"http override kept verbatim", "http://localhost:8080", []string{"http://localhost:8080"}},
		{"scheme assumed when missing", "llm.internal.example:8443", []string{"https://llm.internal.example:8443"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{ProviderBaseURL: tt.override}
			assert.Equal(t, tt.expected, c.ProviderBaseURLs())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default config is valid", func(c *Config) {}, ""},
		{"empty dashboard url", func(c *Config) { c.DashboardURL = "" }, "dashboard_url"},
		{"empty capture methods", func(c *Config) { c.CaptureMethods = nil }, "capture_methods"},
		{"unknown log output", func(c *Config) { c.LogOutput = "syslog" }, "log_output"},
		{"file output without session dir", func(c *Config) { c.LogOutput = "file" }, "session_dir"},
		{"negative body cap", func(c *Config) { c.BodyMaxBytes = -1 }, "body_max_bytes"},
		{"zero status timeout", func(c *Config) { c.StatusTimeoutMs = 0 }, "status_timeout_ms"},
		{"zero push timeout", func(c *Config) { c.PushTimeoutMs = 0 }, "push_timeout_ms"},
		{"zero workers", func(c *Config) { c.Delivery.Workers = 0 }, "workers"},
		{"zero queue", func(c *Config) { c.Delivery.QueueSize = 0 }, "queue_size"},
		{"zero tracker bound", func(c *Config) { c.TrackerMaxFlows = 0 }, "tracker_max_flows"},
		{"unknown archive type", func(c *Config) { c.ArchiveType = "s3" }, "archive_type"},
		{"elasticsearch without index", func(c *Config) { c.ArchiveType = "elasticsearch"; c.ArchiveIndex = "" }, "archive_index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaultConfig
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
