package config

import (
	"os"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Telnyx   TelnyxConfig   `json:"telnyx"`
	OpenAI   OpenAIConfig   `json:"openai"`
	Limits   LimitsConfig   `json:"limits"`
	Bot      BotConfig      `json:"bot"`
	Admin    AdminConfig    `json:"admin"`
	Queue    QueueConfig    `json:"queue"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type TelnyxConfig struct {
	APIKey      string `json:"api_key"`
	PublicKey   string `json:"public_key"`
	PhoneNumber string `json:"phone_number"`
	BaseURL     string `json:"base_url,omitempty"`
}

type OpenAIConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// LimitsConfig controls the domain rate limiter. FailPolicy decides what
// happens when the counter store is unreachable: "open" admits the request
// with a warning, "closed" denies it.
type LimitsConfig struct {
	UserPerDay          int    `json:"user_per_day"`
	ConversationPerHour int    `json:"conversation_per_hour"`
	FailPolicy          string `json:"fail_policy"`
}

type BotConfig struct {
	ActivationName string `json:"activation_name"`
	GroupSizeLimit int    `json:"group_size_limit"`
}

type AdminConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

type QueueConfig struct {
	Concurrency int `json:"concurrency"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "jarvis")
	viper.SetDefault("database.database", "jarvis")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("telnyx.base_url", "https://api.telnyx.com/v2")
	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("limits.user_per_day", 20)
	viper.SetDefault("limits.conversation_per_hour", 10)
	viper.SetDefault("limits.fail_policy", "open")
	viper.SetDefault("bot.activation_name", "jarvis")
	viper.SetDefault("bot.group_size_limit", 8)
	viper.SetDefault("queue.concurrency", 10)

	// Read config; the file is optional, env vars cover deployment
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("JARVIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("JARVIS_HOST"); host != "" {
		cfg.Server.Host = host
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}

	if key := os.Getenv("TELNYX_API_KEY"); key != "" {
		cfg.Telnyx.APIKey = key
	}
	if key := os.Getenv("TELNYX_PUBLIC_KEY"); key != "" {
		cfg.Telnyx.PublicKey = key
	}
	if num := os.Getenv("TELNYX_PHONE_NUMBER"); num != "" {
		cfg.Telnyx.PhoneNumber = num
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}

	if secret := os.Getenv("JARVIS_JWT_SECRET"); secret != "" {
		cfg.Admin.JWTSecret = secret
	}
}
