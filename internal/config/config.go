package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var ErrMissingSetting = errors.New("required setting is missing")

type Config struct {
	API struct {
		URL      string        `yaml:"url"`
		Username string        `yaml:"username"`
		Password string        `yaml:"password"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Mode string `yaml:"mode"`
		TLS  struct {
			Enabled  bool   `yaml:"enabled"`
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Audit struct {
		ElasticsearchURL      string `yaml:"elasticsearch_url"`
		ElasticsearchUsername string `yaml:"elasticsearch_username"`
		ElasticsearchPassword string `yaml:"elasticsearch_password"`
	} `yaml:"audit"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// DefaultPaths are searched in order; the first readable file wins.
var DefaultPaths = []string{
	"./configs/config.yaml",
	"../configs/config.yaml",
	"/etc/patient-dashboard/config.yaml",
}

// envBindings maps config keys onto environment variables. The environment
// always overrides the file.
var envBindings = map[string]string{
	"api.url":                      "DASHBOARD_API_URL",
	"api.username":                 "DASHBOARD_API_USERNAME",
	"api.password":                 "DASHBOARD_API_PASSWORD",
	"api.timeout":                  "DASHBOARD_API_TIMEOUT",
	"server.host":                  "SERVER_HOST",
	"server.port":                  "SERVER_PORT",
	"server.mode":                  "SERVER_MODE",
	"server.tls.enabled":           "SERVER_TLS_ENABLED",
	"server.tls.cert_file":         "SERVER_TLS_CERT_FILE",
	"server.tls.key_file":          "SERVER_TLS_KEY_FILE",
	"log.level":                    "LOG_LEVEL",
	"log.format":                   "LOG_FORMAT",
	"audit.elasticsearch_url":      "ELASTICSEARCH_URL",
	"audit.elasticsearch_username": "ELASTICSEARCH_USERNAME",
	"audit.elasticsearch_password": "ELASTICSEARCH_PASSWORD",
	"rate_limit.rps":               "RATE_LIMIT_RPS",
	"rate_limit.burst":             "RATE_LIMIT_BURST",
}

func Load() (*Config, error) {
	return LoadFrom(DefaultPaths...)
}

// LoadFrom resolves configuration from defaults, the first readable YAML
// file among paths, and the environment, in increasing precedence.
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	settings, err := readFile(paths)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	var cfg Config
	cfg.API.URL = v.GetString("api.url")
	cfg.API.Username = v.GetString("api.username")
	cfg.API.Password = v.GetString("api.password")
	cfg.API.Timeout = v.GetDuration("api.timeout")

	cfg.Server.Host = v.GetString("server.host")
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.Mode = v.GetString("server.mode")
	cfg.Server.TLS.Enabled = v.GetBool("server.tls.enabled")
	cfg.Server.TLS.CertFile = v.GetString("server.tls.cert_file")
	cfg.Server.TLS.KeyFile = v.GetString("server.tls.key_file")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cfg.Audit.ElasticsearchURL = v.GetString("audit.elasticsearch_url")
	cfg.Audit.ElasticsearchUsername = v.GetString("audit.elasticsearch_username")
	cfg.Audit.ElasticsearchPassword = v.GetString("audit.elasticsearch_password")

	cfg.RateLimit.RPS = v.GetFloat64("rate_limit.rps")
	cfg.RateLimit.Burst = v.GetInt("rate_limit.burst")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("rate_limit.rps", 30)
	v.SetDefault("rate_limit.burst", 30)
}

// readFile returns the settings of the first readable file, or nil when
// none of the paths exist.
func readFile(paths []string) (map[string]interface{}, error) {
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		configFile, err := os.ReadFile(absPath)
		if err != nil {
			continue
		}

		var settings map[string]interface{}
		if err := yaml.Unmarshal(configFile, &settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", absPath, err)
		}
		if settings == nil {
			settings = map[string]interface{}{}
		}
		return settings, nil
	}

	return nil, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	var missing []string
	if c.API.URL == "" {
		missing = append(missing, envBindings["api.url"])
	}
	if c.API.Username == "" {
		missing = append(missing, envBindings["api.username"])
	}
	if c.API.Password == "" {
		missing = append(missing, envBindings["api.password"])
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}

	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("%w: TLS is enabled without a certificate and key", ErrMissingSetting)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
