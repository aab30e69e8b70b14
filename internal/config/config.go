package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Data    DataConfig    `mapstructure:"data"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Log     LogConfig     `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	PerPage       int           `mapstructure:"per_page"`
	ReferrerDelay time.Duration `mapstructure:"referrer_delay"`
}

type DataConfig struct {
	Dir     string `mapstructure:"dir"`
	Journal string `mapstructure:"journal"`
}

type RefreshConfig struct {
	// WindowDays is how many days before the last recorded date a
	// refresh-mode run starts. The platform seems to revise at most the
	// current day, so the default re-fetches the last recorded day plus
	// the one before it.
	WindowDays int `mapstructure:"window_days"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:       "https://dev.to/api",
			Timeout:       30 * time.Second,
			UserAgent:     "devstats/1.0 (github.com/pders01/devstats)",
			PerPage:       100,
			ReferrerDelay: 500 * time.Millisecond,
		},
		Data: DataConfig{
			Dir:     "./data",
			Journal: filepath.Join(homeDir, ".devstats", "journal.db"),
		},
		Refresh: RefreshConfig{
			WindowDays: 1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("api", cfg.API)
	v.SetDefault("data", cfg.Data)
	v.SetDefault("refresh", cfg.Refresh)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "devstats")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DEVSTATS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// LoadAPIKey resolves the analytics API credential. A .env file in the
// working directory is read first; real environment variables win over it.
// A missing key is fatal to the caller.
func LoadAPIKey() (string, error) {
	_ = godotenv.Load()

	if key := os.Getenv("DEVTO_API_KEY"); key != "" {
		return key, nil
	}
	if key := os.Getenv("API_KEY"); key != "" {
		return key, nil
	}
	return "", errors.New("neither DEVTO_API_KEY nor API_KEY is set (checked environment and .env)")
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Data.Dir = expandPath(cfg.Data.Dir)
	cfg.Data.Journal = expandPath(cfg.Data.Journal)
	if cfg.Log.Path != "" {
		cfg.Log.Path = expandPath(cfg.Log.Path)
	}
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Convert durations to strings for TOML readability
	apiCfg := map[string]interface{}{
		"base_url":       config.API.BaseURL,
		"timeout":        config.API.Timeout.String(),
		"user_agent":     config.API.UserAgent,
		"per_page":       config.API.PerPage,
		"referrer_delay": config.API.ReferrerDelay.String(),
	}

	v.Set("api", apiCfg)
	v.Set("data", config.Data)
	v.Set("refresh", config.Refresh)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
