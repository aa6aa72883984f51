package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	sessionModel "rushledger/internal/interview/models"
	sessionService "rushledger/internal/interview/service"
	"rushledger/internal/platform/middleware"
)

type InterviewService interface {
	Record(ctx context.Context, interviewerID uuid.UUID, req sessionService.RecordRequest) (*sessionModel.Interview, error)
	Complete(ctx context.Context, interviewerID, interviewID uuid.UUID, req sessionService.CompleteRequest) (*sessionModel.Interview, error)
	Get(ctx context.Context, callerID, interviewID uuid.UUID) (*sessionModel.Interview, error)
	ListForCandidate(ctx context.Context, callerID, candidateID uuid.UUID) ([]*sessionModel.Interview, error)
	ListOwn(ctx context.Context, interviewerID uuid.UUID) ([]*sessionModel.Interview, error)
}

// InterviewHandler exposes interview records.
type InterviewHandler struct {
	interviews InterviewService
	logger     *slog.Logger
}

func NewInterviewHandler(interviews InterviewService, logger *slog.Logger) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, logger: logger}
}

func (h *InterviewHandler) Register(r chi.Router) {
	r.Post("/interviews", h.handleRecord)
	r.Get("/interviews/mine", h.handleListOwn)
	r.Get("/interviews/{interviewID}", h.handleGet)
	r.Post("/interviews/{interviewID}/complete", h.handleComplete)
	r.Get("/candidates/{candidateID}/interviews", h.handleListForCandidate)
}

func (h *InterviewHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req sessionService.RecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	iv, err := h.interviews.Record(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, iv)
}

func (h *InterviewHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	interviewID, err := pathID(r, "interviewID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req sessionService.CompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	iv, err := h.interviews.Complete(r.Context(), middleware.GetUserID(r.Context()), interviewID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

func (h *InterviewHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	interviewID, err := pathID(r, "interviewID")
	if err != nil {
		writeError(w, err)
		return
	}
	iv, err := h.interviews.Get(r.Context(), middleware.GetUserID(r.Context()), interviewID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

func (h *InterviewHandler) handleListForCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathID(r, "candidateID")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.interviews.ListForCandidate(r.Context(), middleware.GetUserID(r.Context()), candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *InterviewHandler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	rows, err := h.interviews.ListOwn(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
