// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	RealDebrid struct {
		APIURL         string `mapstructure:"api_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"realdebrid"`
	Lease struct {
		LivenessWindowSeconds int `mapstructure:"liveness_window_seconds"`
		SweepIntervalMinutes  int `mapstructure:"sweep_interval_minutes"`
	} `mapstructure:"lease"`
	LinkCache struct {
		TTLHours             int `mapstructure:"ttl_hours"`
		SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
	} `mapstructure:"link_cache"`
	Validation struct {
		StartupDelayMinutes int `mapstructure:"startup_delay_minutes"`
		IntervalHours       int `mapstructure:"interval_hours"`
	} `mapstructure:"validation"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "DUCKFLIX_" prefix.
	// e.g., DUCKFLIX_DATABASE_PATH will override the `database.path` key.
	viper.SetEnvPrefix("DUCKFLIX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("database.path", "./duckflix.db")
	viper.SetDefault("realdebrid.api_url", "https://api.real-debrid.com/rest/1.0")
	viper.SetDefault("realdebrid.timeout_seconds", 10)
	viper.SetDefault("lease.liveness_window_seconds", 30)
	viper.SetDefault("lease.sweep_interval_minutes", 5)
	viper.SetDefault("link_cache.ttl_hours", 48)
	viper.SetDefault("link_cache.sweep_interval_minutes", 60)
	viper.SetDefault("validation.startup_delay_minutes", 1)
	viper.SetDefault("validation.interval_hours", 6)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
