package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ballotModel "rushledger/internal/ballot/models"
	ballotService "rushledger/internal/ballot/service"
	"rushledger/internal/platform/middleware"
)

type BallotService interface {
	OpenRound(ctx context.Context, callerID uuid.UUID, name string, eventID *uuid.UUID) (*ballotModel.Round, error)
	CloseRound(ctx context.Context, callerID, roundID uuid.UUID) (*ballotModel.Round, error)
	GetRound(ctx context.Context, roundID uuid.UUID) (*ballotModel.Round, error)
	ListRounds(ctx context.Context) ([]*ballotModel.Round, error)
	Cast(ctx context.Context, voterID uuid.UUID, req ballotService.CastRequest) (*ballotModel.Ballot, error)
	BallotsForVoter(ctx context.Context, voterID uuid.UUID) ([]*ballotModel.Ballot, error)
	Results(ctx context.Context, roundID uuid.UUID) (*ballotModel.RoundResults, error)
	RawBallots(ctx context.Context, callerID, roundID uuid.UUID) ([]*ballotModel.Ballot, error)
}

// BallotHandler exposes voting rounds and ballots. Non-admins only ever see
// the aggregate results shape; raw ballots stay behind the admin endpoint.
type BallotHandler struct {
	ballots BallotService
	logger  *slog.Logger
}

func NewBallotHandler(ballots BallotService, logger *slog.Logger) *BallotHandler {
	return &BallotHandler{ballots: ballots, logger: logger}
}

func (h *BallotHandler) Register(r chi.Router) {
	r.Post("/rounds", h.handleOpenRound)
	r.Get("/rounds", h.handleListRounds)
	r.Get("/rounds/{roundID}", h.handleGetRound)
	r.Post("/rounds/{roundID}/close", h.handleCloseRound)
	r.Get("/rounds/{roundID}/results", h.handleResults)
	r.Get("/rounds/{roundID}/ballots", h.handleRawBallots)
	r.Post("/ballots", h.handleCast)
	r.Get("/ballots/mine", h.handleMine)
}

type openRoundRequest struct {
	Name    string     `json:"name"`
	EventID *uuid.UUID `json:"event_id,omitempty"`
}

func (h *BallotHandler) handleOpenRound(w http.ResponseWriter, r *http.Request) {
	var req openRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	round, err := h.ballots.OpenRound(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.EventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

func (h *BallotHandler) handleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.ballots.ListRounds(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (h *BallotHandler) handleGetRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := pathID(r, "roundID")
	if err != nil {
		writeError(w, err)
		return
	}
	round, err := h.ballots.GetRound(r.Context(), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (h *BallotHandler) handleCloseRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := pathID(r, "roundID")
	if err != nil {
		writeError(w, err)
		return
	}
	round, err := h.ballots.CloseRound(r.Context(), middleware.GetUserID(r.Context()), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (h *BallotHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	roundID, err := pathID(r, "roundID")
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.ballots.Results(r.Context(), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *BallotHandler) handleRawBallots(w http.ResponseWriter, r *http.Request) {
	roundID, err := pathID(r, "roundID")
	if err != nil {
		writeError(w, err)
		return
	}
	ballots, err := h.ballots.RawBallots(r.Context(), middleware.GetUserID(r.Context()), roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballots)
}

func (h *BallotHandler) handleCast(w http.ResponseWriter, r *http.Request) {
	var req ballotService.CastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ballot, err := h.ballots.Cast(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ballot)
}

func (h *BallotHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	ballots, err := h.ballots.BallotsForVoter(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballots)
}
