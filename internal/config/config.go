package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration tree.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig configures the websocket gateway.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig configures the optional Postgres match store. With an empty
// URL the server runs purely in memory.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// GameConfig configures per-match behavior. BotThinkDelay paces bot moves so
// human players can follow along; zero plays instantly.
type GameConfig struct {
	BotLevel      string        `mapstructure:"bot_level"`
	BotSeed       int64         `mapstructure:"bot_seed"`
	BotThinkDelay time.Duration `mapstructure:"bot_think_delay"`
	ReplayDir     string        `mapstructure:"replay_dir"`
}

// Load reads configuration from a file plus DEAL_* environment overrides.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("game.bot_level", "medium")
	v.SetDefault("game.bot_seed", 0)
	v.SetDefault("game.bot_think_delay", "0s")
	v.SetDefault("game.replay_dir", "replays")

	v.SetEnvPrefix("DEAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
