package server

import (
	"context"
	"errors"
	"net/http"
	"pokemon-sysbot/internal/api"
	"pokemon-sysbot/internal/domain"
	"pokemon-sysbot/internal/repository"
	"pokemon-sysbot/internal/service"
	"pokemon-sysbot/internal/trade"
	"strings"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const (
	SysBotPath = "/sysbot.v1.SysBot/"

	PrincipalIDHeader    = "X-Principal-Id"
	PrincipalLabelHeader = "X-Principal-Label"
)

var errNoPrincipal = errors.New("missing principal")

type SysBotServer struct {
	species *service.SpeciesService
	builds  *service.BuildService
	trades  *service.TradeService
	logger  zerolog.Logger
}

func NewSysBotServer(species *service.SpeciesService, builds *service.BuildService, trades *service.TradeService, logger zerolog.Logger) *SysBotServer {
	return &SysBotServer{species: species, builds: builds, trades: trades, logger: logger}
}

func unary[Req, Res any](mux *http.ServeMux, name string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts ...connect.HandlerOption) {
	procedure := SysBotPath + name
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// Handler returns the path prefix and handler serving every SysBot procedure.
func (s *SysBotServer) Handler() (string, http.Handler) {
	opts := []connect.HandlerOption{connect.WithCodec(jsonCodec{})}
	mux := http.NewServeMux()

	unary(mux, "GetSpecies", s.GetSpecies, opts...)
	unary(mux, "SearchSpecies", s.SearchSpecies, opts...)
	unary(mux, "GetMove", s.GetMove, opts...)
	unary(mux, "ValidateBuild", s.ValidateBuild, opts...)
	unary(mux, "CheckAvailability", s.CheckAvailability, opts...)
	unary(mux, "QueueBuild", s.QueueBuild, opts...)
	unary(mux, "ListQueue", s.ListQueue, opts...)
	unary(mux, "OpenTrade", s.OpenTrade, opts...)
	unary(mux, "GetTrade", s.GetTrade, opts...)
	unary(mux, "RegenerateTrade", s.RegenerateTrade, opts...)
	unary(mux, "CloseTrade", s.CloseTrade, opts...)
	unary(mux, "ClearCache", s.ClearCache, opts...)

	return SysBotPath, mux
}

func principalFrom(h http.Header) (domain.Principal, error) {
	id := strings.TrimSpace(h.Get(PrincipalIDHeader))
	if id == "" {
		return domain.Principal{}, connect.NewError(connect.CodeUnauthenticated, errNoPrincipal)
	}
	return domain.Principal{ID: id, DisplayLabel: h.Get(PrincipalLabelHeader)}, nil
}

// toConnectError maps service errors onto connect codes.
func toConnectError(err error) error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}

	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, api.ErrNotFound),
		errors.Is(err, trade.ErrSessionNotFound),
		errors.Is(err, repository.ErrQueuedBuildNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrBuildIllegal),
		errors.Is(err, service.ErrNothingQueued),
		errors.Is(err, trade.ErrSessionActive),
		errors.Is(err, trade.ErrSessionClosed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, service.ErrTeamFull):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}

	var se *api.StatusError
	if errors.As(err, &se) && se.Retryable() {
		return connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func (s *SysBotServer) fail(ctx context.Context, procedure string, err error) error {
	ce := toConnectError(err)
	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &s.logger
	}
	var connectErr *connect.Error
	if errors.As(ce, &connectErr) && connectErr.Code() == connect.CodeInternal {
		log.Error().Err(err).Str("procedure", procedure).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("procedure", procedure).Msg("request rejected")
	}
	return ce
}

func (s *SysBotServer) GetSpecies(ctx context.Context, req *connect.Request[GetSpeciesRequest]) (*connect.Response[service.SpeciesDetails], error) {
	details, err := s.species.GetSpecies(ctx, req.Msg.Name)
	if err != nil {
		return nil, s.fail(ctx, "GetSpecies", err)
	}
	return connect.NewResponse(details), nil
}

func (s *SysBotServer) SearchSpecies(ctx context.Context, req *connect.Request[SearchSpeciesRequest]) (*connect.Response[SearchSpeciesResponse], error) {
	matches, err := s.species.Search(ctx, req.Msg.Query)
	if err != nil {
		return nil, s.fail(ctx, "SearchSpecies", err)
	}
	return connect.NewResponse(&SearchSpeciesResponse{Matches: matches}), nil
}

func (s *SysBotServer) GetMove(ctx context.Context, req *connect.Request[GetMoveRequest]) (*connect.Response[domain.Move], error) {
	move, err := s.species.GetMove(ctx, req.Msg.Name)
	if err != nil {
		return nil, s.fail(ctx, "GetMove", err)
	}
	return connect.NewResponse(move), nil
}

func (s *SysBotServer) ValidateBuild(ctx context.Context, req *connect.Request[ValidateBuildRequest]) (*connect.Response[ValidateBuildResponse], error) {
	build, err := s.species.Resolve(ctx, req.Msg.Build)
	if err != nil {
		return nil, s.fail(ctx, "ValidateBuild", err)
	}
	return connect.NewResponse(&ValidateBuildResponse{Summary: s.builds.Validate(build)}), nil
}

func (s *SysBotServer) CheckAvailability(ctx context.Context, req *connect.Request[CheckAvailabilityRequest]) (*connect.Response[CheckAvailabilityResponse], error) {
	results, err := s.builds.CheckAvailability(ctx, req.Msg.Species, req.Msg.Collections...)
	if err != nil {
		return nil, s.fail(ctx, "CheckAvailability", err)
	}
	return connect.NewResponse(&CheckAvailabilityResponse{Results: results}), nil
}

func (s *SysBotServer) QueueBuild(ctx context.Context, req *connect.Request[QueueBuildRequest]) (*connect.Response[QueueResponse], error) {
	p, err := principalFrom(req.Header())
	if err != nil {
		return nil, err
	}
	builds, err := s.species.ResolveTeam(ctx, req.Msg.Builds)
	if err != nil {
		return nil, s.fail(ctx, "QueueBuild", err)
	}
	queued, err := s.builds.QueueBuilds(ctx, p, builds)
	if err != nil {
		return nil, s.fail(ctx, "QueueBuild", err)
	}
	return connect.NewResponse(&QueueResponse{Builds: queued}), nil
}

func (s *SysBotServer) ListQueue(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[QueueResponse], error) {
	p, err := principalFrom(req.Header())
	if err != nil {
		return nil, err
	}
	builds, err := s.builds.ListQueue(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, "ListQueue", err)
	}
	return connect.NewResponse(&QueueResponse{Builds: builds}), nil
}

func (s *SysBotServer) OpenTrade(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[TradeResponse], error) {
	p, err := principalFrom(req.Header())
	if err != nil {
		return nil, err
	}
	ticket, err := s.trades.OpenTrade(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, "OpenTrade", err)
	}
	return connect.NewResponse(toTradeResponse(ticket)), nil
}

func (s *SysBotServer) GetTrade(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[TradeResponse], error) {
	p, err := principalFrom(req.Header())
	if err != nil {
		return nil, err
	}
	ticket, err := s.trades.GetTrade(p)
	if err != nil {
		return nil, s.fail(ctx, "GetTrade", err)
	}
	return connect.NewResponse(toTradeResponse(ticket)), nil
}

func (s *SysBotServer) RegenerateTrade(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[TradeResponse], error) {
	p, err := principalFrom(req.Header())
	if err != nil {
		return nil, err
	}
	ticket, err := s.trades.RegenerateTrade(p)
	if err != nil {
		return nil, s.fail(ctx, "RegenerateTrade", err)
	}
	return connect.NewResponse(toTradeResponse(ticket)), nil
}

func (s *SysBotServer) CloseTrade(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[Empty], error) {
	p, err := principalFrom(req.Header())
	if err != nil {
		return nil, err
	}
	if err := s.trades.CloseTrade(ctx, p); err != nil {
		return nil, s.fail(ctx, "CloseTrade", err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *SysBotServer) ClearCache(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[Empty], error) {
	if err := s.species.ClearCache(ctx); err != nil {
		return nil, s.fail(ctx, "ClearCache", err)
	}
	s.builds.ResetAvailability()
	return connect.NewResponse(&Empty{}), nil
}
