package config

import (
	"deltae/internal/ciede2000"
	"deltae/internal/quality"
)

const (
	defaultConfigPath  = "~/.config/deltae/config.toml"
	projectConfigName  = "deltae.toml"
	historyFileName    = "history.db"
	defaultBlockSize   = 4 * 1024 * 1024
	minBlockSize       = 1
	maxBlockSize       = 1 << 30
	defaultFormat      = "text"
	defaultProgress    = "auto"
	defaultHistoryKeep = 500
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Input: Input{
			BlockSize: defaultBlockSize,
		},
		Metric: Metric{
			KL:       ciede2000.VideoWeights.KL,
			KC:       ciede2000.VideoWeights.KC,
			KH:       ciede2000.VideoWeights.KH,
			MaxScore: quality.DefaultMaxScore,
		},
		Output: Output{
			Format:   defaultFormat,
			Progress: defaultProgress,
		},
		History: History{
			Enabled: true,
			Dir:     defaultHistoryDir(),
			Keep:    defaultHistoryKeep,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
