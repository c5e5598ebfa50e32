package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl"
	"gopkg.in/yaml.v3"

	"github.com/0xPolygon/edge-xcc/sandbox"
	"github.com/0xPolygon/edge-xcc/types"
	"github.com/0xPolygon/edge-xcc/xcc"
)

// Config defines the CLI configuration params
type Config struct {
	EngineAccount  string     `json:"engine_account" yaml:"engine_account" hcl:"engine_account"`
	WNearAccount   string     `json:"wnear_account" yaml:"wnear_account" hcl:"wnear_account"`
	RelayerAccount string     `json:"relayer_account" yaml:"relayer_account" hcl:"relayer_account"`
	DataDir        string     `json:"data_dir" yaml:"data_dir" hcl:"data_dir"`
	Storage        string     `json:"storage" yaml:"storage" hcl:"storage"`
	GasLimit       int64      `json:"gas_limit" yaml:"gas_limit" hcl:"gas_limit"`
	LogLevel       string     `json:"log_level" yaml:"log_level" hcl:"log_level"`
	JSONLogFormat  bool       `json:"json_log_format" yaml:"json_log_format" hcl:"json_log_format"`
	Telemetry      *Telemetry `json:"telemetry" yaml:"telemetry" hcl:"telemetry"`

	// MetricsInterval is a duration string such as "10s"
	MetricsInterval string `json:"metrics_interval" yaml:"metrics_interval" hcl:"metrics_interval"`
}

// Telemetry holds the config details for metric services.
type Telemetry struct {
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr" hcl:"prometheus_addr"`
}

const (
	// DefaultGasLimit is the EVM gas limit of the transactions the CLI submits
	DefaultGasLimit int64 = 1_000_000

	// DefaultMetricsInterval is the aggregation interval of the in-memory metrics sink
	DefaultMetricsInterval = 10 * time.Second
)

// DefaultConfig returns the default CLI configuration
func DefaultConfig() *Config {
	sb := sandbox.DefaultConfig()

	return &Config{
		EngineAccount:   string(sb.EngineAccount),
		WNearAccount:    string(sb.WNearAccount),
		RelayerAccount:  string(sb.Relayer),
		DataDir:         "",
		Storage:         string(sandbox.BackendMemory),
		GasLimit:        DefaultGasLimit,
		LogLevel:        "INFO",
		Telemetry:       &Telemetry{},
		MetricsInterval: DefaultMetricsInterval.String(),
	}
}

// ReadConfigFile reads the config file from the specified path, builds a Config object
// and returns it.
//
// Supported file types: .json, .hcl, .yaml, .yml
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var unmarshalFunc func([]byte, interface{}) error

	switch {
	case strings.HasSuffix(path, ".hcl"):
		unmarshalFunc = hcl.Unmarshal
	case strings.HasSuffix(path, ".json"):
		unmarshalFunc = json.Unmarshal
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		unmarshalFunc = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("suffix of %s is neither hcl, json, yaml nor yml", path)
	}

	config := DefaultConfig()

	if err := unmarshalFunc(data, config); err != nil {
		return nil, err
	}

	if config.Telemetry == nil {
		config.Telemetry = &Telemetry{}
	}

	return config, nil
}

// Load reads path when it is set and falls back to the defaults otherwise
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	return ReadConfigFile(path)
}

// Validate checks every field and reports all the problems at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := xcc.ValidateEngineAccount(types.AccountID(c.EngineAccount)); err != nil {
		result = multierror.Append(result, fmt.Errorf("engine_account: %w", err))
	}

	for name, id := range map[string]string{
		"wnear_account":   c.WNearAccount,
		"relayer_account": c.RelayerAccount,
	} {
		if _, err := types.ParseAccountID(id); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}

	backend, err := sandbox.ParseBackend(c.Storage)
	if err != nil {
		result = multierror.Append(result, err)
	} else if backend != sandbox.BackendMemory && c.DataDir == "" {
		result = multierror.Append(result, fmt.Errorf("storage %s needs data_dir", backend))
	}

	if c.GasLimit <= 0 {
		result = multierror.Append(result, errors.New("gas_limit must be positive"))
	}

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}

	if _, err := c.Interval(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Interval parses MetricsInterval
func (c *Config) Interval() (time.Duration, error) {
	if c.MetricsInterval == "" {
		return DefaultMetricsInterval, nil
	}

	d, err := time.ParseDuration(c.MetricsInterval)
	if err != nil {
		return 0, fmt.Errorf("metrics_interval: %w", err)
	}

	return d, nil
}

// Sandbox returns the sandbox accounts described by the config
func (c *Config) Sandbox() *sandbox.Config {
	sb := sandbox.DefaultConfig()
	sb.EngineAccount = types.AccountID(c.EngineAccount)
	sb.WNearAccount = types.AccountID(c.WNearAccount)
	sb.Relayer = types.AccountID(c.RelayerAccount)
	sb.GasLimit = uint64(c.GasLimit)

	return sb
}

// Logger builds the root logger described by the config
func (c *Config) Logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "xcc",
		Level:      hclog.LevelFromString(c.LogLevel),
		JSONFormat: c.JSONLogFormat,
		Output:     os.Stderr,
	})
}
