package server

import (
	"pokemon-sysbot/internal/domain"
	"pokemon-sysbot/internal/legality"
	"pokemon-sysbot/internal/repository"
	"pokemon-sysbot/internal/service"
	"pokemon-sysbot/internal/trade"
)

type Empty struct{}

type GetSpeciesRequest struct {
	Name string `json:"name"`
}

type SearchSpeciesRequest struct {
	Query string `json:"query"`
}

type SearchSpeciesResponse struct {
	Matches []service.SpeciesMatch `json:"matches"`
}

type GetMoveRequest struct {
	Name string `json:"name"`
}

type ValidateBuildRequest struct {
	Build domain.BuildPayload `json:"build"`
}

type ValidateBuildResponse struct {
	legality.Summary
}

type CheckAvailabilityRequest struct {
	Species     string   `json:"species"`
	Collections []string `json:"collections"`
}

type CheckAvailabilityResponse struct {
	Results []service.CollectionAvailability `json:"results"`
}

type QueueBuildRequest struct {
	Builds []domain.BuildPayload `json:"builds"`
}

type QueueResponse struct {
	Builds []repository.QueuedBuild `json:"builds"`
}

type TradeResponse struct {
	trade.Ticket
	Remaining string `json:"remaining"`
	CopyText  string `json:"copy_text,omitempty"`
}

func toTradeResponse(t trade.Ticket) *TradeResponse {
	resp := &TradeResponse{Ticket: t, Remaining: t.Remaining()}
	if text, err := t.CopyText(); err == nil {
		resp.CopyText = text
	}
	return resp
}
