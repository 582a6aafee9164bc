// Package config loads exprcalc settings from an optional YAML file and the
// environment. Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/exprcalc/pkg/expr"
	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// Config holds every tunable setting.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpcPort"`

	// HistoryDB is the SQLite file for the evaluation history. Empty keeps
	// the history in memory.
	HistoryDB string `yaml:"historyDB"`

	MaxExpressionLength int    `yaml:"maxExpressionLength"`
	LiteralType         string `yaml:"literalType"`
	ResultType          string `yaml:"resultType"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Host:                "0.0.0.0",
		Port:                8787,
		GRPCPort:            8788,
		MaxExpressionLength: expr.MaxExpressionLength,
		LiteralType:         types.KindF64.String(),
	}
}

// Load starts from Default, applies the YAML file at path (if path is not
// empty) and then the environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Host = envOrDefault("HOST", c.Host)
	c.HistoryDB = envOrDefault("HISTORY_DB", c.HistoryDB)
	c.LiteralType = envOrDefault("EXPRCALC_LITERAL_TYPE", c.LiteralType)
	c.ResultType = envOrDefault("EXPRCALC_RESULT_TYPE", c.ResultType)

	for key, dst := range map[string]*int{
		"PORT":                &c.Port,
		"GRPC_PORT":           &c.GRPCPort,
		"EXPRCALC_MAX_LENGTH": &c.MaxExpressionLength,
	} {
		n, err := envInt(key, *dst)
		if err != nil {
			return err
		}
		*dst = n
	}
	return nil
}

// Validate checks ports, the length limit and type names.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port %d", c.GRPCPort)
	}
	if c.MaxExpressionLength < 0 {
		return fmt.Errorf("invalid maxExpressionLength %d", c.MaxExpressionLength)
	}
	if c.LiteralType != "" {
		if _, err := types.ParseKind(c.LiteralType); err != nil {
			return fmt.Errorf("literalType: %w", err)
		}
	}
	if c.ResultType != "" {
		if _, err := types.ParseKind(c.ResultType); err != nil {
			return fmt.Errorf("resultType: %w", err)
		}
	}
	return nil
}

// ExprOptions converts the evaluation settings into expr options.
func (c *Config) ExprOptions() ([]expr.Option, error) {
	opts := []expr.Option{expr.WithMaxLength(c.MaxExpressionLength)}
	if c.LiteralType != "" {
		k, err := types.ParseKind(c.LiteralType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, expr.WithLiteralKind(k))
	}
	if c.ResultType != "" {
		k, err := types.ParseKind(c.ResultType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, expr.WithResultKind(k))
	}
	return opts, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCAddr returns the gRPC listen address.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
