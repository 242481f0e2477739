package service

import (
	"context"
	"fmt"
	"pokemon-sysbot/internal/domain"
)

// Resolve turns a client payload into a Build, filling species and move details from the
// provider. Stat values are taken as given; range checks belong to validation.
func (s *SpeciesService) Resolve(ctx context.Context, p domain.BuildPayload) (*domain.Build, error) {
	if len(p.Moves) > domain.MoveSlots {
		return nil, fmt.Errorf("%w: at most %d moves, got %d", ErrInvalidArgument, domain.MoveSlots, len(p.Moves))
	}

	var nature domain.Nature
	if p.Nature != "" {
		n, ok := domain.NatureByName(p.Nature)
		if !ok {
			return nil, fmt.Errorf("%w: unknown nature %q", ErrInvalidArgument, p.Nature)
		}
		nature = n
	}

	gender := domain.Gender(normalizeName(p.Gender))
	if gender != "" && !gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender %q", ErrInvalidArgument, p.Gender)
	}

	details, err := s.GetSpecies(ctx, p.Species)
	if err != nil {
		return nil, err
	}

	moves, err := s.GetMoves(ctx, p.Moves)
	if err != nil {
		return nil, err
	}

	b := &domain.Build{
		Species:  details.Species,
		Stats:    p.StatBlock(),
		Nature:   nature,
		TeraType: p.TeraType,
		Ability:  p.Ability,
		Level:    p.Level,
		Shiny:    p.Shiny,
		Gender:   gender,
		HeldItem: p.HeldItem,
		Ball:     p.Ball,
		Origin:   p.Origin,
	}
	copy(b.Moves[:], moves)
	return b, nil
}

// ResolveTeam resolves each payload in order and stops at the first failure.
func (s *SpeciesService) ResolveTeam(ctx context.Context, payloads []domain.BuildPayload) ([]domain.Build, error) {
	builds := make([]domain.Build, 0, len(payloads))
	for i, p := range payloads {
		b, err := s.Resolve(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("build %d: %w", i+1, err)
		}
		builds = append(builds, *b)
	}
	return builds, nil
}
