package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	feedbackModel "rushledger/internal/feedback/models"
	feedbackService "rushledger/internal/feedback/service"
	"rushledger/internal/platform/middleware"
)

type FeedbackService interface {
	Submit(ctx context.Context, authorID uuid.UUID, req feedbackService.SubmitRequest) (*feedbackModel.Feedback, error)
	ListForCandidate(ctx context.Context, callerID, candidateID uuid.UUID) ([]*feedbackModel.Feedback, error)
	ListOwn(ctx context.Context, callerID uuid.UUID) ([]*feedbackModel.Feedback, error)
}

// FeedbackHandler exposes candidate feedback. Visibility and anonymity are
// shaped in the service; the handler passes the caller through untouched.
type FeedbackHandler struct {
	feedback FeedbackService
	logger   *slog.Logger
}

func NewFeedbackHandler(feedback FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

func (h *FeedbackHandler) Register(r chi.Router) {
	r.Post("/feedback", h.handleSubmit)
	r.Get("/candidates/{candidateID}/feedback", h.handleListForCandidate)
	r.Get("/feedback/mine", h.handleListOwn)
}

func (h *FeedbackHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req feedbackService.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	fb, err := h.feedback.Submit(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

func (h *FeedbackHandler) handleListForCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathID(r, "candidateID")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.feedback.ListForCandidate(r.Context(), middleware.GetUserID(r.Context()), candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *FeedbackHandler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	rows, err := h.feedback.ListOwn(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
