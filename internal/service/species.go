package service

import (
	"context"
	"fmt"
	"path"
	"pokemon-sysbot/internal/api"
	"pokemon-sysbot/internal/cache"
	"pokemon-sysbot/internal/constants"
	"pokemon-sysbot/internal/domain"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DataProvider is the remote species and move catalog.
type DataProvider interface {
	GetPokemon(ctx context.Context, idOrName string) (*api.PokemonResponse, error)
	ListPokemon(ctx context.Context, limit, offset int) (*api.PokemonListResponse, error)
	GetPokemonSpecies(ctx context.Context, name string) (*api.PokemonSpeciesResponse, error)
	GetMove(ctx context.Context, idOrName string) (*api.MoveResponse, error)
	GetPokedex(ctx context.Context, id int) (*api.PokedexResponse, error)
}

type SpeciesDetails struct {
	Species        domain.Species `json:"species"`
	LearnableMoves []string       `json:"learnableMoves"`
}

type SpeciesMatch struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type SpeciesService struct {
	provider DataProvider
	cache    *cache.DataCache
	logger   zerolog.Logger
}

func NewSpeciesService(provider DataProvider, c *cache.DataCache, logger zerolog.Logger) *SpeciesService {
	return &SpeciesService{provider: provider, cache: c, logger: logger}
}

// cached memoizes one provider call under key. The provider returns pointers; the cache
// holds values so rehydrated and freshly fetched entries have the same shape.
func cached[T any](ctx context.Context, c *cache.DataCache, key string, fetch func(ctx context.Context) (*T, error)) (*T, error) {
	v, err := cache.Fetch(ctx, c, key, func(ctx context.Context) (T, error) {
		r, err := fetch(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *SpeciesService) GetSpecies(ctx context.Context, name string) (*SpeciesDetails, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: species name is required", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.logger.Debug().Str("species", name).Msg("getting species")

	pokemon, err := cached(ctx, s.cache, "pokemon_"+name, func(ctx context.Context) (*api.PokemonResponse, error) {
		return s.provider.GetPokemon(ctx, name)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("species", name).Msg("failed to fetch pokemon")
		return nil, fmt.Errorf("failed to fetch pokemon %s: %w", name, err)
	}

	speciesName := pokemon.Species.Name
	if speciesName == "" {
		speciesName = pokemon.Name
	}
	species, err := cached(ctx, s.cache, "species_"+speciesName, func(ctx context.Context) (*api.PokemonSpeciesResponse, error) {
		return s.provider.GetPokemonSpecies(ctx, speciesName)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("species", speciesName).Msg("failed to fetch pokemon species")
		return nil, fmt.Errorf("failed to fetch pokemon species %s: %w", speciesName, err)
	}

	details := &SpeciesDetails{
		Species:        toSpecies(pokemon, species),
		LearnableMoves: make([]string, 0, len(pokemon.Moves)),
	}
	for _, m := range pokemon.Moves {
		details.LearnableMoves = append(details.LearnableMoves, m.Move.Name)
	}

	s.logger.Info().Str("species", name).Int("moves", len(details.LearnableMoves)).Msg("species fetched")
	return details, nil
}

func toSpecies(p *api.PokemonResponse, sp *api.PokemonSpeciesResponse) domain.Species {
	out := domain.Species{
		ID:         p.ID,
		Name:       p.Name,
		Types:      make([]string, 0, len(p.Types)),
		Abilities:  make([]domain.SpeciesAbility, 0, len(p.Abilities)),
		Genderless: sp.GenderRate == -1,
	}
	for _, t := range p.Types {
		out.Types = append(out.Types, t.Type.Name)
	}
	for _, a := range p.Abilities {
		out.Abilities = append(out.Abilities, domain.SpeciesAbility{
			Name:   a.Ability.Name,
			Hidden: a.IsHidden,
			Slot:   a.Slot,
		})
	}
	switch {
	case p.Sprites.Other.OfficialArtwork.FrontDefault != nil:
		out.Sprite = *p.Sprites.Other.OfficialArtwork.FrontDefault
	case p.Sprites.FrontDefault != nil:
		out.Sprite = *p.Sprites.FrontDefault
	}
	return out
}

func (s *SpeciesService) GetMove(ctx context.Context, name string) (*domain.Move, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: move name is required", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	m, err := cached(ctx, s.cache, "move_"+name, func(ctx context.Context) (*api.MoveResponse, error) {
		return s.provider.GetMove(ctx, name)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("move", name).Msg("failed to fetch move")
		return nil, fmt.Errorf("failed to fetch move %s: %w", name, err)
	}

	return &domain.Move{
		ID:          m.ID,
		Name:        m.Name,
		Type:        m.Type.Name,
		Power:       m.Power,
		Accuracy:    m.Accuracy,
		PP:          m.PP,
		DamageClass: domain.DamageClass(m.DamageClass.Name),
	}, nil
}

// GetMoves resolves every named move concurrently, keeping input order.
func (s *SpeciesService) GetMoves(ctx context.Context, names []string) ([]*domain.Move, error) {
	moves := make([]*domain.Move, len(names))
	g, gCtx := errgroup.WithContext(ctx)
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		g.Go(func() error {
			m, err := s.GetMove(gCtx, name)
			if err != nil {
				return err
			}
			moves[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return moves, nil
}

// Search matches the query against the species list, by national id when the query is
// numeric and by name substring otherwise.
func (s *SpeciesService) Search(ctx context.Context, query string) ([]SpeciesMatch, error) {
	query = normalizeName(query)
	if query == "" {
		return []SpeciesMatch{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	key := fmt.Sprintf("pokemon_list_%d_0", constants.SpeciesListLimit)
	list, err := cached(ctx, s.cache, key, func(ctx context.Context) (*api.PokemonListResponse, error) {
		return s.provider.ListPokemon(ctx, constants.SpeciesListLimit, 0)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("failed to list species")
		return nil, fmt.Errorf("failed to list species: %w", err)
	}

	wantID, numeric := 0, false
	if n, err := strconv.Atoi(query); err == nil {
		wantID, numeric = n, true
	}

	matches := make([]SpeciesMatch, 0, constants.SearchSuggestionLimit)
	for _, r := range list.Results {
		id := resourceID(r.URL)
		if numeric && id != wantID {
			continue
		}
		if !numeric && !strings.Contains(r.Name, query) {
			continue
		}
		matches = append(matches, SpeciesMatch{ID: id, Name: r.Name, DisplayName: DisplayName(r.Name)})
		if len(matches) == constants.SearchSuggestionLimit {
			break
		}
	}

	s.logger.Info().Int("count", len(matches)).Str("query", query).Msg("search completed")
	return matches, nil
}

// PokedexSpecies lists the species of one provider pokedex through the cache.
func (s *SpeciesService) PokedexSpecies(ctx context.Context, id int) ([]string, error) {
	dex, err := cached(ctx, s.cache, fmt.Sprintf("pokedex_%d", id), func(ctx context.Context) (*api.PokedexResponse, error) {
		return s.provider.GetPokedex(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pokedex %d: %w", id, err)
	}
	return dex.SpeciesNames(), nil
}

// resourceID reads the trailing id of a provider resource url, 0 when absent.
func resourceID(url string) int {
	id, err := strconv.Atoi(path.Base(strings.TrimSuffix(url, "/")))
	if err != nil {
		return 0
	}
	return id
}

// DisplayName turns a provider slug such as "mr-mime" into "Mr Mime".
func DisplayName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (s *SpeciesService) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear cache")
		return err
	}
	s.logger.Info().Msg("cache cleared")
	return nil
}
