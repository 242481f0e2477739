package config

import (
	"fmt"
	"os"
	"pokemon-sysbot/internal/constants"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	PokeAPIBaseURL    string
	DBPath            string
	ServerPort        string
	LogLevel          string
	CacheTTL          time.Duration
	TradeCodeLifetime time.Duration
	APITimeout        time.Duration
	APIMaxRetries     int
	TeamSizeLimit     int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		PokeAPIBaseURL: getEnv("POKEAPI_BASE_URL", constants.PokeAPIBaseURL),
		DBPath:         getEnv("DB_PATH", "sysbot.db"),
		ServerPort:     getEnv("SERVER_PORT", "4000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", constants.SpeciesCacheTTL); err != nil {
		return nil, err
	}
	if cfg.TradeCodeLifetime, err = getDuration("TRADE_CODE_LIFETIME", constants.TradeCodeLifetime); err != nil {
		return nil, err
	}
	if cfg.APITimeout, err = getDuration("API_TIMEOUT", constants.ExternalAPITimeout); err != nil {
		return nil, err
	}
	if cfg.APIMaxRetries, err = getInt("API_MAX_RETRIES", constants.ExternalAPIMaxRetries); err != nil {
		return nil, err
	}
	if cfg.TeamSizeLimit, err = getInt("TEAM_SIZE_LIMIT", constants.TeamSizeLimit); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("pokeapi_base_url", cfg.PokeAPIBaseURL).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Dur("trade_code_lifetime", cfg.TradeCodeLifetime).
		Dur("api_timeout", cfg.APITimeout).
		Int("api_max_retries", cfg.APIMaxRetries).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PokeAPIBaseURL == "" {
		return fmt.Errorf("POKEAPI_BASE_URL is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.TradeCodeLifetime < time.Second {
		return fmt.Errorf("TRADE_CODE_LIFETIME must be at least one second")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("API_MAX_RETRIES must not be negative")
	}
	if c.TeamSizeLimit <= 0 {
		return fmt.Errorf("TEAM_SIZE_LIMIT must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

var Module = fx.Provide(Load)
