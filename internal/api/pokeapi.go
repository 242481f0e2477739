package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"pokemon-sysbot/internal/config"
	"pokemon-sysbot/internal/constants"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrDecode   = errors.New("malformed response body")
)

type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d (%s)", e.Code, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == fasthttp.StatusNotFound
}

func (e *StatusError) Retryable() bool {
	return e.Code == fasthttp.StatusTooManyRequests || e.Code >= 500
}

type PokeAPIClient struct {
	baseURL    string
	client     *fasthttp.Client
	timeout    time.Duration
	maxRetries int
	retryBase  time.Duration
	logger     zerolog.Logger

	statsMu sync.RWMutex
	stats   RequestStats
}

type RequestStats struct {
	Requests  int       `json:"requests"`
	Retries   int       `json:"retries"`
	Failures  int       `json:"failures"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPokeAPIClient(cfg *config.Config, logger zerolog.Logger) *PokeAPIClient {
	return &PokeAPIClient{
		baseURL: strings.TrimRight(cfg.PokeAPIBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         cfg.APITimeout,
			WriteTimeout:        cfg.APITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		timeout:    cfg.APITimeout,
		maxRetries: cfg.APIMaxRetries,
		retryBase:  constants.ExternalAPIRetryBase,
		logger:     logger.With().Str("component", "pokeapi").Logger(),
	}
}

func (c *PokeAPIClient) GetRequestStats() RequestStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

func (c *PokeAPIClient) record(fn func(s *RequestStats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	fn(&c.stats)
	c.stats.UpdatedAt = time.Now()
}

func (c *PokeAPIClient) GetPokemon(ctx context.Context, idOrName string) (*PokemonResponse, error) {
	u := fmt.Sprintf("%s/pokemon/%s", c.baseURL, url.PathEscape(strings.ToLower(idOrName)))
	return doRequest[PokemonResponse](ctx, c, u)
}

func (c *PokeAPIClient) ListPokemon(ctx context.Context, limit, offset int) (*PokemonListResponse, error) {
	u := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)
	return doRequest[PokemonListResponse](ctx, c, u)
}

func (c *PokeAPIClient) GetPokemonSpecies(ctx context.Context, name string) (*PokemonSpeciesResponse, error) {
	u := fmt.Sprintf("%s/pokemon-species/%s", c.baseURL, url.PathEscape(strings.ToLower(name)))
	return doRequest[PokemonSpeciesResponse](ctx, c, u)
}

func (c *PokeAPIClient) GetMove(ctx context.Context, idOrName string) (*MoveResponse, error) {
	u := fmt.Sprintf("%s/move/%s", c.baseURL, url.PathEscape(strings.ToLower(idOrName)))
	return doRequest[MoveResponse](ctx, c, u)
}

func (c *PokeAPIClient) GetPokedex(ctx context.Context, id int) (*PokedexResponse, error) {
	u := fmt.Sprintf("%s/pokedex/%s", c.baseURL, strconv.Itoa(id))
	return doRequest[PokedexResponse](ctx, c, u)
}

// doRequest performs a GET with a per-attempt timeout. Transport errors, 429 and 5xx are
// retried with exponential backoff; other statuses and undecodable bodies fail immediately.
func doRequest[T any](ctx context.Context, client *PokeAPIClient, url string) (*T, error) {
	backoff := retry.WithMaxRetries(uint64(client.maxRetries), retry.NewExponential(client.retryBase))

	var result *T
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			client.record(func(s *RequestStats) { s.Retries++ })
			client.logger.Debug().Str("url", url).Int("attempt", attempt).Msg("retrying request")
		}

		var err error
		result, err = doOnce[T](ctx, client, url)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return err
		}
		if errors.Is(err, ErrDecode) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		client.record(func(s *RequestStats) { s.Failures++ })
		client.logger.Warn().Err(err).Str("url", url).Int("attempts", attempt).Msg("request failed")
		return nil, err
	}
	return result, nil
}

func doOnce[T any](ctx context.Context, client *PokeAPIClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	client.record(func(s *RequestStats) { s.Requests++ })

	deadline := time.Now().Add(client.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrDecode, url, err)
	}
	return &result, nil
}
