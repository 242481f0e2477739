package constants

import "time"

const (
	PokeAPIBaseURL = "https://pokeapi.co/api/v2"
	CacheKeyPrefix = "pokeapi_"
)

const (
	SpeciesCacheTTL   = 24 * time.Hour
	TradeCodeLifetime = 180 * time.Second
)

const (
	ExternalAPITimeout    = 10 * time.Second
	ExternalAPIMaxRetries = 3
	ExternalAPIRetryBase  = 200 * time.Millisecond
	DatabaseTimeout       = 5 * time.Second
	RequestTimeout        = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SearchSuggestionLimit = 10
	SpeciesListLimit      = 1010
	TeamSizeLimit         = 6
	QueueListLimit        = 50
)
