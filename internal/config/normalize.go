package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if c.Input.BlockSize == 0 {
		c.Input.BlockSize = defaultBlockSize
	}
	c.normalizeOutput()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeOutput() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultFormat
	}
	c.Output.Progress = strings.ToLower(strings.TrimSpace(c.Output.Progress))
	if c.Output.Progress == "" {
		c.Output.Progress = defaultProgress
	}
}

func (c *Config) normalizeHistory() error {
	if value, ok := os.LookupEnv("DELTAE_HISTORY_DIR"); ok && strings.TrimSpace(value) != "" {
		c.History.Dir = value
	}
	if strings.TrimSpace(c.History.Dir) == "" {
		c.History.Dir = defaultHistoryDir()
	}
	var err error
	if c.History.Dir, err = expandPath(c.History.Dir); err != nil {
		return fmt.Errorf("history.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
