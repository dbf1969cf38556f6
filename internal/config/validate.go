package config

import (
	"errors"
	"fmt"
	"math"

	"deltae/internal/failure"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateInput,
		c.validateMetric,
		c.validateOutput,
		c.validateHistory,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", failure.ErrConfiguration, err)
		}
	}
	return nil
}

func (c *Config) validateInput() error {
	if c.Input.BlockSize < minBlockSize || c.Input.BlockSize > maxBlockSize {
		return fmt.Errorf("input.block_size must be between %d and %d bytes", minBlockSize, maxBlockSize)
	}
	return nil
}

func (c *Config) validateMetric() error {
	for name, v := range map[string]float64{"metric.kl": c.Metric.KL, "metric.kc": c.Metric.KC, "metric.kh": c.Metric.KH} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a positive number", name)
		}
	}
	if !(c.Metric.MaxScore > 0) || math.IsInf(c.Metric.MaxScore, 0) {
		return errors.New("metric.max_score must be a positive number")
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "text", "json", "table":
	default:
		return fmt.Errorf("output.format must be text, json or table (got %q)", c.Output.Format)
	}
	switch c.Output.Progress {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.progress must be auto, always or never (got %q)", c.Output.Progress)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Keep < 0 {
		return errors.New("history.keep must be zero or positive")
	}
	if c.History.Enabled && c.History.Dir == "" {
		return errors.New("history.dir must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	return nil
}
