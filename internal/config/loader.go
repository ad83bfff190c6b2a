package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the add-in host.
// Zero values mean "unspecified" and are filled by Merge/Default. Swagger is a
// pointer so an explicit false still overrides a lower layer.
type Config struct {
	Addr             string   `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel         string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat        string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	HeartbeatSeconds int      `json:"heartbeat_seconds" yaml:"heartbeat_seconds" toml:"heartbeat_seconds"`
	QueueDepth       int      `json:"queue_depth" yaml:"queue_depth" toml:"queue_depth"`
	CORSOrigins      []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Swagger          *bool    `json:"swagger" yaml:"swagger" toml:"swagger"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:             ":8080",
		LogLevel:         "trace",
		LogFormat:        "json",
		HeartbeatSeconds: 50,
		QueueDepth:       16,
	}
}

// Merge returns c with every zero field taken from base.
func (c Config) Merge(base Config) Config {
	if c.Addr == "" { c.Addr = base.Addr }
	if c.LogLevel == "" { c.LogLevel = base.LogLevel }
	if c.LogFormat == "" { c.LogFormat = base.LogFormat }
	if c.HeartbeatSeconds <= 0 { c.HeartbeatSeconds = base.HeartbeatSeconds }
	if c.QueueDepth <= 0 { c.QueueDepth = base.QueueDepth }
	if len(c.CORSOrigins) == 0 { c.CORSOrigins = base.CORSOrigins }
	if c.Swagger == nil { c.Swagger = base.Swagger }
	return c
}

// SwaggerEnabled reports whether the API docs are served. Unset means off.
func (c Config) SwaggerEnabled() bool { return c.Swagger != nil && *c.Swagger }

// Heartbeat returns the liveness interval.
func (c Config) Heartbeat() time.Duration { return time.Duration(c.HeartbeatSeconds) * time.Second }

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// FromEnv reads PARAMEXPORT_* variables. Unset or malformed values stay zero.
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Config{
		Addr:      getenv("PARAMEXPORT_ADDR"),
		LogLevel:  getenv("PARAMEXPORT_LOG_LEVEL"),
		LogFormat: getenv("PARAMEXPORT_LOG_FORMAT"),
	}
	if n, err := strconv.Atoi(getenv("PARAMEXPORT_HEARTBEAT_SECONDS")); err == nil { cfg.HeartbeatSeconds = n }
	if n, err := strconv.Atoi(getenv("PARAMEXPORT_QUEUE_DEPTH")); err == nil { cfg.QueueDepth = n }
	if v := getenv("PARAMEXPORT_CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" { cfg.CORSOrigins = append(cfg.CORSOrigins, o) }
		}
	}
	if v, err := strconv.ParseBool(getenv("PARAMEXPORT_SWAGGER")); err == nil { cfg.Swagger = &v }
	return cfg
}
