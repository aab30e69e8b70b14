package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       "http://127.0.0.1:0",
			Timeout:       5 * time.Second,
			UserAgent:     "devstats-test/1.0",
			PerPage:       2,
			ReferrerDelay: 0,
		},
		Data: DataConfig{
			Dir:     "",
			Journal: "",
		},
		Refresh: RefreshConfig{
			WindowDays: 1,
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}
