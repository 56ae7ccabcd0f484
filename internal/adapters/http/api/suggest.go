package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scoutai/scoutai/internal/domain/model"
	"github.com/scoutai/scoutai/internal/domain/scoring"
)

// SuggestDependencies defines the interface for recommendation requests.
type SuggestDependencies interface {
	Recommend(ctx context.Context, draft model.DraftContext, roster model.RosterSnapshot, candidates []model.Player) (scoring.Result, error)
}

// SuggestHandler handles recommendation requests.
type SuggestHandler struct {
	deps SuggestDependencies
}

// NewSuggestHandler creates a new suggest handler.
func NewSuggestHandler(deps SuggestDependencies) *SuggestHandler {
	return &SuggestHandler{deps: deps}
}

// suggestRequest mirrors the OpenAPI schema for POST /api/v1/suggest.
type suggestRequest struct {
	CurrentPick      int                 `json:"current_pick"`
	CurrentRound     int                 `json:"current_round"`
	UserRoster       map[string][]string `json:"user_roster"`
	AvailablePlayers []model.Player      `json:"available_players"`
	LeagueSettings   map[string]any      `json:"league_settings,omitempty"`
}

func (s suggestRequest) validate() error {
	switch {
	case s.CurrentPick < 1:
		return errors.New("current_pick must be >= 1")
	case s.CurrentRound < 1:
		return errors.New("current_round must be >= 1")
	case s.AvailablePlayers == nil:
		return errors.New("missing available_players")
	}
	return nil
}

type suggestResponse struct {
	Recommendations []model.Recommendation `json:"recommendations"`
	Skipped         []scoring.Skipped      `json:"skipped,omitempty"`
	RosterAnalysis  rosterAnalysis         `json:"roster_analysis"`
}

// rosterAnalysis reports the remaining need per position.
type rosterAnalysis struct {
	Needs map[model.Position]int `json:"needs"`
}

func analyze(roster model.RosterSnapshot) rosterAnalysis {
	needs := make(map[model.Position]int, len(model.Positions))
	for _, p := range model.Positions {
		needs[p] = roster.Need(p)
	}
	return rosterAnalysis{Needs: needs}
}

// HandleSuggest handles POST /api/v1/suggest requests.
func (h *SuggestHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggest"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	roster, err := model.RosterFromNames(req.UserRoster)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	draft := model.DraftContext{Round: req.CurrentRound, Pick: req.CurrentPick}
	res, err := h.deps.Recommend(r.Context(), draft, roster, req.AvailablePlayers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	recs := res.Recommendations
	if recs == nil {
		recs = []model.Recommendation{}
	}
	writeJSON(w, http.StatusOK, suggestResponse{
		Recommendations: recs,
		Skipped:         res.Skipped,
		RosterAnalysis:  analyze(roster),
	})
}
