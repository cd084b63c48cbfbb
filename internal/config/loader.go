package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

var (
	// GlobalConfig holds the global configuration instance
	GlobalConfig *Config

	// loadedViper is the instance that read the config file; WatchConfig
	// must watch this one, not a fresh instance with no file bound
	loadedViper *viper.Viper
)

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("/etc/bazaarbuddy")
		v.AddConfigPath("$HOME/.bazaarbuddy")
	}

	// Environment variables
	v.SetEnvPrefix("BAZAAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	GlobalConfig = config
	loadedViper = v

	return config, nil
}

// MustLoadConfig loads configuration and panics on error
func MustLoadConfig(configPath string) *Config {
	config, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return config
}

// GetConfig returns the global configuration instance
func GetConfig() *Config {
	if GlobalConfig == nil {
		panic("Config not loaded. Call LoadConfig first.")
	}
	return GlobalConfig
}

// WatchConfig watches the loaded configuration file and reloads the
// global configuration when it changes on disk. A reload that fails
// validation keeps the previous configuration.
func WatchConfig(callback func()) {
	v := loadedViper
	if v == nil || v.ConfigFileUsed() == "" {
		log.Warn("No config file loaded, config watch disabled")
		return
	}

	path := v.ConfigFileUsed()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.WithFields(map[string]interface{}{
			"file": e.Name,
		}).Info("Config file changed, reloading")
		reloadFromDisk(path, callback)
	})
	v.WatchConfig()
}

func reloadFromDisk(path string, callback func()) {
	if _, err := LoadConfig(path); err != nil {
		log.WithError(err).Error("Failed to reload config, keeping previous configuration")
		return
	}
	if callback != nil {
		callback()
	}
}
