package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "https://pokeapi.co/api/v2", cfg.PokeAPIBaseURL)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 180*time.Second, cfg.TradeCodeLifetime)
	assert.Equal(t, 6, cfg.TeamSizeLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "2h")
	t.Setenv("API_MAX_RETRIES", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.APIMaxRetries)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "CACHE_TTL", value: "tomorrow"},
		{name: "negative ttl", key: "CACHE_TTL", value: "-1h"},
		{name: "bad int", key: "TEAM_SIZE_LIMIT", value: "six"},
		{name: "short lifetime", key: "TRADE_CODE_LIFETIME", value: "10ms"},
		{name: "bad level", key: "LOG_LEVEL", value: "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(zerolog.Nop())
			assert.Error(t, err)
		})
	}
}
