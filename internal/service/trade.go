package service

import (
	"context"
	"errors"
	"fmt"
	"pokemon-sysbot/internal/constants"
	"pokemon-sysbot/internal/domain"
	"pokemon-sysbot/internal/repository"
	"pokemon-sysbot/internal/trade"

	"github.com/rs/zerolog"
)

// TradeService hands queued builds to a trade session. Builds move to trading while a
// session holds them and return to queued when it is closed.
type TradeService struct {
	manager *trade.Manager
	queue   Queue
	logger  zerolog.Logger
}

func NewTradeService(manager *trade.Manager, queue Queue, logger zerolog.Logger) *TradeService {
	return &TradeService{manager: manager, queue: queue, logger: logger}
}

func (s *TradeService) OpenTrade(ctx context.Context, p domain.Principal) (trade.Ticket, error) {
	if p.ID == "" {
		return trade.Ticket{}, fmt.Errorf("%w: principal is required", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	builds, err := s.queue.ListByPrincipal(ctx, p.ID, repository.StatusQueued, repository.StatusTrading)
	if err != nil {
		s.logger.Error().Err(err).Str("principal", p.ID).Msg("failed to load queued builds")
		return trade.Ticket{}, err
	}
	if len(builds) == 0 {
		return trade.Ticket{}, ErrNothingQueued
	}

	ids := make([]string, 0, len(builds))
	payloads := make([]domain.BuildPayload, 0, len(builds))
	for _, b := range builds {
		ids = append(ids, b.ID)
		payloads = append(payloads, b.Payload)
	}

	ticket, err := s.manager.Open(p, payloads)
	if err != nil {
		return trade.Ticket{}, fmt.Errorf("failed to open trade session: %w", err)
	}

	if err := s.queue.SetStatus(ctx, repository.StatusTrading, ids...); err != nil {
		s.logger.Error().Err(err).Str("principal", p.ID).Msg("failed to mark builds as trading")
		_ = s.manager.Close(p)
		return trade.Ticket{}, err
	}

	return ticket, nil
}

func (s *TradeService) GetTrade(p domain.Principal) (trade.Ticket, error) {
	return s.manager.Get(p)
}

func (s *TradeService) RegenerateTrade(p domain.Principal) (trade.Ticket, error) {
	return s.manager.Regenerate(p)
}

func (s *TradeService) CloseTrade(ctx context.Context, p domain.Principal) error {
	if err := s.manager.Close(p); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	trading, err := s.queue.ListByPrincipal(ctx, p.ID, repository.StatusTrading)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(trading))
	for _, b := range trading {
		ids = append(ids, b.ID)
	}
	if err := s.queue.SetStatus(ctx, repository.StatusQueued, ids...); err != nil && !errors.Is(err, repository.ErrQueuedBuildNotFound) {
		s.logger.Error().Err(err).Str("principal", p.ID).Msg("failed to return builds to the queue")
		return err
	}
	return nil
}
