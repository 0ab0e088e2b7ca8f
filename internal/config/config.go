package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML-backed process configuration. Secrets (bot token, TMDB
// API key) come from the environment, not from this file.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Telegram struct {
		WebhookURL  string `yaml:"webhook_url"`
		WebhookPath string `yaml:"webhook_path"`
	} `yaml:"telegram"`
	TMDB struct {
		BaseURL   string `yaml:"base_url"`
		ImageBase string `yaml:"image_base"`
		TTL       string `yaml:"ttl"`
	} `yaml:"tmdb"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Leaderboard struct {
		Size int `yaml:"size"`
	} `yaml:"leaderboard"`
	Jobs struct {
		MonthlyReset  string `yaml:"monthly_reset"`
		DailyQuiz     string `yaml:"daily_quiz"`
		MorningPrompt string `yaml:"morning_prompt"`
		EveningPrompt string `yaml:"evening_prompt"`
		UpcomingAlert string `yaml:"upcoming_alert"`
	} `yaml:"jobs"`
	Logger struct {
		Level string `yaml:"level"`
		Env   string `yaml:"env"`
	} `yaml:"logger"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
