package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tapestry-tools/tapestry/pkg/platform"
)

type Config struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Search struct {
		MaxResults   int  `mapstructure:"max_results"`
		RelaxSources bool `mapstructure:"relax_sources"`
	} `mapstructure:"search"`

	UI struct {
		Theme    string `mapstructure:"theme"`
		PageSize int    `mapstructure:"page_size"`
	} `mapstructure:"ui"`

	Turns struct {
		GapMinutes int `mapstructure:"gap_minutes"`
	} `mapstructure:"turns"`

	Serve struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"serve"`
}

// TurnGap returns the configured turn-splitting gap as a duration.
func (c *Config) TurnGap() time.Duration {
	return time.Duration(c.Turns.GapMinutes) * time.Minute
}

var (
	cfg  *Config
	dirs *platform.Dirs
)

func Init() error {
	appDirs, err := platform.AppDirs("tapestry")
	if err != nil {
		return fmt.Errorf("failed to get app directories: %w", err)
	}
	dirs = appDirs

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dirs.Config)

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file just means defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(dirs.Data, "tapestry.db")
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("database.path", "")

	viper.SetDefault("search.max_results", 50)
	viper.SetDefault("search.relax_sources", true)

	viper.SetDefault("ui.theme", "dark")
	viper.SetDefault("ui.page_size", 20)

	viper.SetDefault("turns.gap_minutes", 7)

	viper.SetDefault("serve.addr", "localhost:8787")
}

func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

func GetDirs() *platform.Dirs {
	if dirs == nil {
		panic("config not initialized")
	}
	return dirs
}

func SaveDefaults() error {
	configPath := filepath.Join(dirs.Config, "config.yaml")
	return viper.WriteConfigAs(configPath)
}
