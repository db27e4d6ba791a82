package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
)

// FileEnv names the environment variable pointing at an optional YAML config
// file. Environment variables win over file values.
const FileEnv = "SUSHIFY_CONFIG"

// DefaultProviderBaseURLs are the hosted LLM endpoints recognized out of the
// box.
var DefaultProviderBaseURLs = []string{
	"https://api.openai.com",
	"https://api.anthropic.com",
	"https://generativelanguage.googleapis.com",
}

var defaultConfig = Config{
	DashboardURL:    "http://localhost:7331",
	ProviderBaseURL: "",
	CaptureMethods:  []string{"POST"},
	BodyMaxBytes:    0,
	RedactHeaders:   []string{},
	RedactJSONPaths: []string{},
	LogLevel:        "info",
	LogOutput:       "stdout",
	SessionDir:      "",
	StatusTimeoutMs: 1000,
	PushTimeoutMs:   3000,
	Delivery: delivery{
		Workers:   4,
		QueueSize: 256,
	},
	TrackerMaxFlows: 8192,
	Metrics: metric{
		Enabled: false,
		Bind:    "0.0.0.0:9311",
	},
	ArchiveType:  "none",
	ArchiveIndex: "sushify-exchanges",
	Elasticsearch: Elasticsearch{
		Addresses:              []string{"http://127.0.0.1:9200"},
		Username:               "",
		Password:               "",
		CloudID:                "",
		APIKey:                 "",
		ServiceToken:           "",
		CertificateFingerprint: "",
	},
}

// Config represents the configuration of the capture layer.
type Config struct {
	DashboardURL    string   `koanf:"dashboard_url"`
	ProviderBaseURL string   `koanf:"provider_base_url"` // single override, replaces the built-in provider list
	CaptureMethods  []string `koanf:"capture_methods"`   // request methods considered body-bearing
	BodyMaxBytes    int      `koanf:"body_max_bytes"`    // 0 keeps bodies at full fidelity
	RedactHeaders   []string `koanf:"redact_headers"`
	RedactJSONPaths []string `koanf:"redact_json_paths"`

	LogLevel   string `koanf:"log_level"`  // Log level: "debug", "info", "warn", "error", "fatal"
	LogOutput  string `koanf:"log_output"` // Log destination: "stdout" or "file"
	SessionDir string `koanf:"session_dir"`

	StatusTimeoutMs int `koanf:"status_timeout_ms"`
	PushTimeoutMs   int `koanf:"push_timeout_ms"`

	Delivery        delivery `koanf:"delivery"`
	TrackerMaxFlows int      `koanf:"tracker_max_flows"`

	Metrics metric `koanf:"metrics"`

	ArchiveType   string        `koanf:"archive_type"` // Archive backend type: "none", "stdout" or "elasticsearch"
	ArchiveIndex  string        `koanf:"archive_index"`
	Elasticsearch Elasticsearch `koanf:"elasticsearch"`
}

type delivery struct {
	Workers   uint `koanf:"workers"`
	QueueSize uint `koanf:"queue_size"`
}

type metric struct {
	Enabled bool   `koanf:"enabled"`
	Bind    string `koanf:"bind"`
}

// Elasticsearch holds the connection settings of the archive cluster.
type Elasticsearch struct {
	Addresses              []string `koanf:"addresses"`
	Username               string   `koanf:"username"`
	Password               string   `koanf:"password"`
	CloudID                string   `koanf:"cloud_id"`
	APIKey                 string   `koanf:"api_key"`
	ServiceToken           string   `koanf:"service_token"`
	CertificateFingerprint string   `koanf:"certificate_fingerprint"`
}

// envKeys maps the environment variables read at startup onto config keys.
// LLM_PROVIDER_BASE_URL predates the SUSHIFY_ prefix and keeps its
// historical name.
var envKeys = map[string]string{
	"SUSHIFY_DASHBOARD_URL":                  "dashboard_url",
	"LLM_PROVIDER_BASE_URL":                  "provider_base_url",
	"SUSHIFY_CAPTURE_METHODS":                "capture_methods",
	"SUSHIFY_BODY_MAX_BYTES":                 "body_max_bytes",
	"SUSHIFY_REDACT_HEADERS":                 "redact_headers",
	"SUSHIFY_REDACT_JSON_PATHS":              "redact_json_paths",
	"SUSHIFY_LOG_LEVEL":                      "log_level",
	"SUSHIFY_LOG_OUTPUT":                     "log_output",
	"SUSHIFY_SESSION_DIR":                    "session_dir",
	"SUSHIFY_STATUS_TIMEOUT_MS":              "status_timeout_ms",
	"SUSHIFY_PUSH_TIMEOUT_MS":                "push_timeout_ms",
	"SUSHIFY_DELIVERY_WORKERS":               "delivery.workers",
	"SUSHIFY_DELIVERY_QUEUE_SIZE":            "delivery.queue_size",
	"SUSHIFY_TRACKER_MAX_FLOWS":              "tracker_max_flows",
	"SUSHIFY_METRICS_ENABLED":                "metrics.enabled",
	"SUSHIFY_METRICS_BIND":                   "metrics.bind",
	"SUSHIFY_ARCHIVE_TYPE":                   "archive_type",
	"SUSHIFY_ARCHIVE_INDEX":                  "archive_index",
	"SUSHIFY_ELASTICSEARCH_ADDRESSES":        "elasticsearch.addresses",
	"SUSHIFY_ELASTICSEARCH_USERNAME":         "elasticsearch.username",
	"SUSHIFY_ELASTICSEARCH_PASSWORD":         "elasticsearch.password",
	"SUSHIFY_ELASTICSEARCH_CLOUD_ID":         "elasticsearch.cloud_id",
	"SUSHIFY_ELASTICSEARCH_API_KEY":          "elasticsearch.api_key",
	"SUSHIFY_ELASTICSEARCH_SERVICE_TOKEN":    "elasticsearch.service_token",
	"SUSHIFY_ELASTICSEARCH_CERT_FINGERPRINT": "elasticsearch.certificate_fingerprint",
}

// sliceKeys names the config keys whose environment values are
// comma-separated lists.
var sliceKeys = map[string]bool{
	"capture_methods":         true,
	"redact_headers":          true,
	"redact_json_paths":       true,
	"elasticsearch.addresses": true,
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load merges defaults, the optional YAML file named by SUSHIFY_CONFIG and
// the environment into a validated Config.
func Load() (*Config, error) {
	// Create a fresh koanf instance for each load to avoid state pollution
	k := koanf.New(".")

	err := k.Load(structs.Provider(defaultConfig, "koanf"), nil)
	if err != nil {
		return nil, fmt.Errorf("error in loading the default config: %w", err)
	}

	if path := os.Getenv(FileEnv); path != "" {
		err = k.Load(file.Provider(path), yaml.Parser())
		if err != nil {
			return nil, fmt.Errorf("error in loading the config file: %w", err)
		}
	}

	err = k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, interface{}) {
		key, ok := envKeys[name]
		if !ok {
			return "", nil
		}
		if sliceKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error in loading the environment: %w", err)
	}

	var c Config
	err = k.Unmarshal("", &c)
	if err != nil {
		return nil, fmt.Errorf("error in unmarshalling the config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate rejects settings that would otherwise surface as undefined
// behavior deep inside the addon.
func (c *Config) Validate() error {
	if c.DashboardURL == "" {
		return errors.New("dashboard_url can not be empty")
	}
	if len(c.CaptureMethods) == 0 {
		return errors.New("capture_methods can not be empty")
	}
	switch c.LogOutput {
	case "stdout", "file":
	default:
		return fmt.Errorf("unknown log_output %q, supported outputs are: stdout, file", c.LogOutput)
	}
	if c.LogOutput == "file" && c.SessionDir == "" {
		return errors.New("session_dir is required when log_output is file")
	}
	if c.BodyMaxBytes < 0 {
		return errors.New("body_max_bytes can not be negative")
	}
	if c.StatusTimeoutMs <= 0 {
		return errors.New("status_timeout_ms must be positive")
	}
	if c.PushTimeoutMs <= 0 {
		return errors.New("push_timeout_ms must be positive")
	}
	if c.Delivery.Workers == 0 {
		return errors.New("delivery workers must be positive")
	}
	if c.Delivery.QueueSize == 0 {
		return errors.New("delivery queue_size must be positive")
	}
	if c.TrackerMaxFlows <= 0 {
		return errors.New("tracker_max_flows must be positive")
	}
	switch c.ArchiveType {
	case "none", "stdout", "elasticsearch":
	default:
		return fmt.Errorf("unknown archive_type %q, supported types are: none, stdout, elasticsearch", c.ArchiveType)
	}
	if c.ArchiveType == "elasticsearch" && c.ArchiveIndex == "" {
		return errors.New("archive_index can not be empty when archive_type is elasticsearch")
	}
	return nil
}

// ProviderBaseURLs resolves the provider list the classifier matches
// against. A configured override replaces the defaults entirely; an override
// without a scheme is assumed to be https.
func (c *Config) ProviderBaseURLs() []string {
	if c.ProviderBaseURL == "" {
		return append([]string(nil), DefaultProviderBaseURLs...)
	}
	base := c.ProviderBaseURL
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	return []string{base}
}

// StatusTimeout returns the capture gate timeout as a duration.
func (c *Config) StatusTimeout() time.Duration {
	return time.Duration(c.StatusTimeoutMs) * time.Millisecond
}

// PushTimeout returns the delivery timeout as a duration.
func (c *Config) PushTimeout() time.Duration {
	return time.Duration(c.PushTimeoutMs) * time.Millisecond
}
