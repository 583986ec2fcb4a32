// Package config resolves the Cloudera AI/ML connection settings and the
// server's own settings. A Config is a plain value: callers that need a
// different default project derive a copy with WithProject instead of
// mutating a shared map.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/httpcache"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultSecretsDir = "/run/secrets"
	DefaultListenHost = "0.0.0.0"
	DefaultListenPort = "8000"
)

// Secret file names looked up under SecretsDir.
const (
	SecretHost      = "cloudera_ml_host"
	SecretAPIKey    = "cloudera_ml_api_key"
	SecretProjectID = "cloudera_ml_project_id"
)

// ErrMissingConfig is wrapped by Validate.
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	Host       string        `yaml:"host"`
	APIKey     string        `yaml:"api_key"`
	ProjectID  string        `yaml:"project_id"`
	Timeout    time.Duration `yaml:"timeout"`
	SecretsDir string        `yaml:"secrets_dir"`

	HTTP     HTTPConfig       `yaml:"http"`
	Upstream UpstreamConfig   `yaml:"upstream"`
	Log      LogConfig        `yaml:"log"`
	Cache    httpcache.Config `yaml:"cache"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
	// RateLimit is requests/second accepted by the HTTP front end; 0 disables.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// UpstreamConfig shapes traffic towards the Cloudera API.
type UpstreamConfig struct {
	// RateLimit is outbound requests/second; 0 means unlimited.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
	// Retries after the first attempt for idempotent requests.
	Retries int `yaml:"retries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used before any file, env or secret is applied.
func Default() Config {
	return Config{
		Timeout:    DefaultTimeout,
		SecretsDir: DefaultSecretsDir,
		HTTP: HTTPConfig{
			Addr:      net.JoinHostPort(DefaultListenHost, DefaultListenPort),
			RateBurst: 20,
		},
		Upstream: UpstreamConfig{
			RateBurst: 5,
			Retries:   3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: httpcache.DefaultConfig(),
	}
}

// Load builds a Config from defaults, an optional YAML file, the environment
// and finally mounted secret files. Secret files take precedence over the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg, err := cfg.applyEnv()
	if err != nil {
		return Config{}, err
	}
	return cfg.applySecrets(), nil
}

func (c Config) applyEnv() (Config, error) {
	setString(&c.Host, "CLOUDERA_ML_HOST")
	setString(&c.APIKey, "CLOUDERA_ML_API_KEY")
	setString(&c.ProjectID, "CLOUDERA_ML_PROJECT_ID")
	setString(&c.SecretsDir, "CML_MCP_SECRETS_DIR")
	setString(&c.HTTP.AuthToken, "CML_MCP_AUTH_TOKEN")
	setString(&c.Log.Level, "CML_MCP_LOG_LEVEL")
	setString(&c.Log.Format, "CML_MCP_LOG_FORMAT")

	listenHost, hostSet := lookup("CML_MCP_HOST")
	listenPort, portSet := lookup("CML_MCP_PORT")
	if hostSet || portSet {
		h, p, err := net.SplitHostPort(c.HTTP.Addr)
		if err != nil {
			h, p = DefaultListenHost, DefaultListenPort
		}
		if hostSet {
			h = listenHost
		}
		if portSet {
			if _, err := strconv.Atoi(listenPort); err != nil {
				return Config{}, fmt.Errorf("invalid CML_MCP_PORT %q: %w", listenPort, err)
			}
			p = listenPort
		}
		c.HTTP.Addr = net.JoinHostPort(h, p)
	}

	if v, ok := lookup("CML_MCP_TIMEOUT_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CML_MCP_TIMEOUT_SECONDS %q", v)
		}
		c.Timeout = time.Duration(n) * time.Second
	}
	if v, ok := lookup("CML_MCP_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return Config{}, fmt.Errorf("invalid CML_MCP_RATE_LIMIT %q", v)
		}
		c.HTTP.RateLimit = f
	}

	if v, ok := lookup("CML_MCP_UPSTREAM_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return Config{}, fmt.Errorf("invalid CML_MCP_UPSTREAM_RATE_LIMIT %q", v)
		}
		c.Upstream.RateLimit = f
	}
	if v, ok := lookup("CML_MCP_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid CML_MCP_RETRIES %q", v)
		}
		c.Upstream.Retries = n
	}

	c.Cache = c.Cache.WithEnv()
	return c, nil
}

func (c Config) applySecrets() Config {
	if c.SecretsDir == "" {
		return c
	}
	if v, ok := readSecret(c.SecretsDir, SecretHost); ok {
		c.Host = v
	}
	if v, ok := readSecret(c.SecretsDir, SecretAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := readSecret(c.SecretsDir, SecretProjectID); ok {
		c.ProjectID = v
	}
	return c
}

func readSecret(dir, name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

// WithProject returns a copy of c whose default project is id. An empty id
// keeps the current default.
func (c Config) WithProject(id string) Config {
	if id = strings.TrimSpace(id); id != "" {
		c.ProjectID = id
	}
	return c
}

// Validate checks the settings a server needs before it can start.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "host (CLOUDERA_ML_HOST)")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "api_key (CLOUDERA_ML_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// BaseURL is the normalized API host.
func (c Config) BaseURL() string {
	return NormalizeHost(c.Host)
}
