package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port               int
	NatsURL            string
	NatsToken          string
	DatabaseURL        string
	LocalDBPath        string
	LogLevel           string
	SlackBotToken      string
	SlackChannel       string
	APIToken           string
	WeightsFile        string
	TextSampleCap      int
	RegistrationWindow time.Duration
	TickInterval       time.Duration
}

func Load() Config {
	return Config{
		Port:               envInt("PARLEY_PORT", 8760),
		NatsURL:            envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:          envStr("NATS_TOKEN", ""),
		DatabaseURL:        envStr("DATABASE_URL", ""),
		LocalDBPath:        envStr("PARLEY_LOCAL_DB", defaultLocalDB()),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		SlackBotToken:      envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:       envStr("SLACK_SUMMARY_CHANNEL", ""),
		APIToken:           envStr("PARLEY_API_TOKEN", ""),
		WeightsFile:        envStr("PARLEY_WEIGHTS_FILE", ""),
		TextSampleCap:      envInt("PARLEY_TEXT_SAMPLE_CAP", 50),
		RegistrationWindow: time.Duration(envInt("PARLEY_REGISTRATION_SECONDS", 10)) * time.Second,
		TickInterval:       envDuration("PARLEY_TICK_INTERVAL", time.Second),
	}
}

func defaultLocalDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parley.db"
	}
	return filepath.Join(home, ".parley", "parley.db")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
