package service

import (
	"context"
	"errors"
	"fmt"
	"pokemon-sysbot/internal/availability"
	"pokemon-sysbot/internal/config"
	"pokemon-sysbot/internal/constants"
	"pokemon-sysbot/internal/domain"
	"pokemon-sysbot/internal/legality"
	"pokemon-sysbot/internal/repository"
	"sync"

	"github.com/rs/zerolog"
)

// Queue is the durable delivery queue.
type Queue interface {
	EnqueueBatch(ctx context.Context, principalID string, limit int, payloads []domain.BuildPayload) ([]repository.QueuedBuild, error)
	ListByPrincipal(ctx context.Context, principalID string, statuses ...repository.QueueStatus) ([]repository.QueuedBuild, error)
	SetStatus(ctx context.Context, status repository.QueueStatus, ids ...string) error
}

type CollectionAvailability struct {
	Collection  availability.Collection `json:"collection"`
	DisplayName string                  `json:"displayName"`
	Membership  availability.Membership `json:"membership"`
	Available   *bool                   `json:"available"`
}

type BuildService struct {
	engine    *legality.Engine
	index     *availability.Index
	queue     Queue
	teamLimit int
	logger    zerolog.Logger
}

func NewBuildService(engine *legality.Engine, index *availability.Index, queue Queue, cfg *config.Config, logger zerolog.Logger) *BuildService {
	limit := cfg.TeamSizeLimit
	if limit <= 0 {
		limit = constants.TeamSizeLimit
	}
	return &BuildService{engine: engine, index: index, queue: queue, teamLimit: limit, logger: logger}
}

func (s *BuildService) Validate(b *domain.Build) legality.Summary {
	results := s.engine.Validate(b)
	summary := legality.Summarize(results)

	ev := s.logger.Debug().Bool("legal", summary.Legal).Int("errors", summary.ErrorCount).Int("warnings", summary.WarningCount)
	if b != nil {
		ev = ev.Str("species", b.Species.Name)
	}
	ev.Msg("build validated")

	return summary
}

// CheckAvailability reports membership in the requested collections, or in every
// configured one when none are named.
func (s *BuildService) CheckAvailability(ctx context.Context, species string, collections ...string) ([]CollectionAvailability, error) {
	species = normalizeName(species)
	if species == "" {
		return nil, fmt.Errorf("%w: species name is required", ErrInvalidArgument)
	}

	keys := make([]availability.Collection, 0, len(collections))
	for _, c := range collections {
		keys = append(keys, availability.Collection(availability.Normalize(c)))
	}
	if len(keys) == 0 {
		for _, info := range s.index.Collections() {
			keys = append(keys, info.Key)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	out := make([]CollectionAvailability, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := s.index.IsMember(ctx, species, key)
			out[i] = CollectionAvailability{
				Collection:  key,
				DisplayName: s.index.DisplayName(key),
				Membership:  m,
				Available:   m.Bool(),
			}
		}()
	}
	wg.Wait()

	return out, nil
}

// QueueBuilds validates every build and enqueues them only when all are legal and the
// principal stays within the team size limit.
func (s *BuildService) QueueBuilds(ctx context.Context, p domain.Principal, builds []domain.Build) ([]repository.QueuedBuild, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: principal is required", ErrInvalidArgument)
	}
	if len(builds) == 0 {
		return nil, fmt.Errorf("%w: at least one build is required", ErrInvalidArgument)
	}

	log := s.logger.With().Str("principal", p.ID).Int("builds", len(builds)).Logger()

	for i := range builds {
		summary := s.Validate(&builds[i])
		if !summary.Legal {
			msg := ""
			if len(summary.Errors) > 0 {
				msg = summary.Errors[0].Message
			}
			log.Warn().Int("index", i).Str("species", builds[i].Species.Name).Msg("refusing to queue illegal build")
			return nil, fmt.Errorf("%w: build %d (%s): %s", ErrBuildIllegal, i+1, builds[i].Species.Name, msg)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	queued, err := s.queue.EnqueueBatch(ctx, p.ID, s.teamLimit, domain.TeamToPayload(builds))
	if err != nil {
		if errors.Is(err, ErrTeamFull) {
			log.Debug().Err(err).Msg("team size limit reached")
		} else {
			log.Error().Err(err).Msg("failed to enqueue builds")
		}
		return nil, err
	}

	log.Info().Msg("builds queued")
	return queued, nil
}

func (s *BuildService) ListQueue(ctx context.Context, p domain.Principal) ([]repository.QueuedBuild, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	builds, err := s.queue.ListByPrincipal(ctx, p.ID, repository.StatusQueued, repository.StatusTrading)
	if err != nil {
		s.logger.Error().Err(err).Str("principal", p.ID).Msg("failed to list queue")
		return nil, err
	}
	if builds == nil {
		builds = []repository.QueuedBuild{}
	}
	return builds, nil
}

// ResetAvailability drops loaded collections so the next lookup reloads them.
func (s *BuildService) ResetAvailability() {
	s.index.Reset()
}
