package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vinodismyname/toasty/pkg/validation"
)

// Config is the on-disk configuration. Durations are Go duration strings.
type Config struct {
	Bus      BusConfig      `yaml:"bus"`
	Limits   LimitsConfig   `yaml:"limits"`
	Sessions SessionsConfig `yaml:"sessions"`
	Metas    MetasConfig    `yaml:"metas"`
	MCP      MCPConfig      `yaml:"mcp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BusConfig names the D-Bus service and the single exported object.
type BusConfig struct {
	Name       string `yaml:"name" validate:"required,busname"`
	ObjectPath string `yaml:"object_path" validate:"required,objectpath"`
}

// LimitsConfig bounds concurrency, input size and call duration.
type LimitsConfig struct {
	MaxConcurrentRequests    int    `yaml:"max_concurrent_requests" validate:"gte=0"`
	MaxConcurrentEvaluations int    `yaml:"max_concurrent_evaluations" validate:"gte=0"`
	MaxExpressionBytes       int    `yaml:"max_expression_bytes" validate:"gte=0"`
	MaxResultIDs             int    `yaml:"max_result_ids" validate:"gte=0"`
	OperationTimeout         string `yaml:"operation_timeout" validate:"omitempty,duration"`
	AcquireRequestTimeout    string `yaml:"acquire_request_timeout" validate:"omitempty,duration"`
}

// SessionsConfig bounds the search session registry. Zero means unbounded.
type SessionsConfig struct {
	MaxEntries int `yaml:"max_entries" validate:"gte=0"`
}

// MetasConfig selects how GetResultMetas reports ids that fail to evaluate.
type MetasConfig struct {
	Policy string `yaml:"policy" validate:"oneof=all_or_nothing partial"`
}

// MCPConfig controls the MCP stdio surface.
type MCPConfig struct {
	ExposeProtocolTools bool `yaml:"expose_protocol_tools"`
}

// LoggingConfig selects zerolog level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Name:       DefaultBusName,
			ObjectPath: DefaultObjectPath,
		},
		Limits: LimitsConfig{
			MaxConcurrentRequests:    DefaultMaxConcurrentRequests,
			MaxConcurrentEvaluations: DefaultMaxConcurrentEvaluations,
			MaxExpressionBytes:       DefaultMaxExpressionBytes,
			MaxResultIDs:             DefaultMaxResultIDs,
			OperationTimeout:         DefaultOperationTimeout.String(),
			AcquireRequestTimeout:    DefaultAcquireRequestTimeout.String(),
		},
		Sessions: SessionsConfig{MaxEntries: DefaultMaxSessionEntries},
		Metas:    MetasConfig{Policy: MetasAllOrNothing},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct rules.
func (c *Config) Validate() error {
	if msg := validation.ValidateStruct(c); msg != "" {
		return fmt.Errorf("config: %s", msg)
	}
	return nil
}

// applyEnvOverrides applies TOASTY_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("TOASTY_BUS_NAME"); v != "" {
		c.Bus.Name = v
	}
	if v := os.Getenv("TOASTY_OBJECT_PATH"); v != "" {
		c.Bus.ObjectPath = v
	}
	if v := os.Getenv("TOASTY_METAS_POLICY"); v != "" {
		c.Metas.Policy = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("TOASTY_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("TOASTY_SESSION_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: TOASTY_SESSION_MAX_ENTRIES: %w", err)
		}
		c.Sessions.MaxEntries = n
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("TOASTY_MCP_PROTOCOL_TOOLS"))); v != "" {
		c.MCP.ExposeProtocolTools = v == "1" || v == "true" || v == "yes"
	}
	return nil
}

// OperationTimeout parses Limits.OperationTimeout, falling back to the default.
func (c *Config) OperationTimeout() time.Duration {
	return parseDuration(c.Limits.OperationTimeout, DefaultOperationTimeout)
}

// AcquireRequestTimeout parses Limits.AcquireRequestTimeout, falling back to the default.
func (c *Config) AcquireRequestTimeout() time.Duration {
	return parseDuration(c.Limits.AcquireRequestTimeout, DefaultAcquireRequestTimeout)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return d
}
