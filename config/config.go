package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// LLMConfig holds the completion-provider settings. APIKeyEnv names the
// environment variable that carries the actual key; the key itself never
// lives in config.yaml.
type LLMConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"-"`
}

// ChatConfig holds the triage pacing and locale settings.
type ChatConfig struct {
	WelcomeDelayMs  int    `mapstructure:"welcome_delay_ms"`
	FollowUpDelayMs int    `mapstructure:"follow_up_delay_ms"`
	PharmacyDelayMs int    `mapstructure:"pharmacy_delay_ms"`
	HistoryLimit    int    `mapstructure:"history_limit"`
	LocationHint    string `mapstructure:"location_hint"`
	EmergencyNumber string `mapstructure:"emergency_number"`
}

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		DSN string `mapstructure:"dsn"` // "memory" or an SQLite file path
	} `mapstructure:"database"`
	LLM  LLMConfig  `mapstructure:"llm"`
	Chat ChatConfig `mapstructure:"chat"`
}

// WelcomeDelay returns the welcome-message pacing delay as a duration.
func (c ChatConfig) WelcomeDelay() time.Duration {
	return time.Duration(c.WelcomeDelayMs) * time.Millisecond
}

// FollowUpDelay returns the follow-up question pacing delay as a duration.
func (c ChatConfig) FollowUpDelay() time.Duration {
	return time.Duration(c.FollowUpDelayMs) * time.Millisecond
}

// PharmacyDelay returns the pharmacy-suggestion pacing delay as a duration.
func (c ChatConfig) PharmacyDelay() time.Duration {
	return time.Duration(c.PharmacyDelayMs) * time.Millisecond
}

// AppConfig is the global configuration instance.
var AppConfig Config

// LoadConfig loads configuration from config.yaml and environment variables.
// Missing files are tolerated; defaults keep the service bootable with only
// an API key in the environment.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../config") // For running from locations like tests

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.dsn", "memory")
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.api_key_env", "LLM_API_KEY")
	viper.SetDefault("chat.welcome_delay_ms", 500)
	viper.SetDefault("chat.follow_up_delay_ms", 1000)
	viper.SetDefault("chat.pharmacy_delay_ms", 1500)
	viper.SetDefault("chat.history_limit", 3)
	viper.SetDefault("chat.location_hint", "Poland")
	viper.SetDefault("chat.emergency_number", "112")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}

	// Load the completion-provider API key from the named environment variable.
	if AppConfig.LLM.APIKeyEnv != "" {
		if key := os.Getenv(AppConfig.LLM.APIKeyEnv); key != "" {
			AppConfig.LLM.APIKey = key
			log.Printf("INFO: [Config] Loaded completion-provider API key from environment variable '%s'.", AppConfig.LLM.APIKeyEnv)
		} else {
			log.Printf("WARN: [Config] Environment variable '%s' is not set; completion calls will fail until it is provided.", AppConfig.LLM.APIKeyEnv)
		}
	}

	log.Println("INFO: [Config] Configuration loading complete.")
}
