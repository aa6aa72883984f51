package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	duesModel "rushledger/internal/dues/models"
	duesService "rushledger/internal/dues/service"
	"rushledger/internal/platform/middleware"
)

type DuesService interface {
	Record(ctx context.Context, adminID uuid.UUID, req duesService.RecordRequest) (*duesModel.Payment, error)
	MarkPaid(ctx context.Context, adminID, paymentID uuid.UUID, method *duesModel.PaymentMethod, paidAt time.Time, reference string) (*duesModel.Payment, error)
	Waive(ctx context.Context, adminID, paymentID uuid.UUID, reason string) (*duesModel.Payment, error)
	MarkOverdue(ctx context.Context, adminID uuid.UUID) (int, error)
	ListOutstanding(ctx context.Context, adminID uuid.UUID) ([]*duesModel.Payment, error)
	ListForUser(ctx context.Context, callerID, userID uuid.UUID) ([]*duesModel.Payment, error)
	Get(ctx context.Context, callerID, paymentID uuid.UUID) (*duesModel.Payment, error)
}

// DuesHandler exposes the dues ledger.
type DuesHandler struct {
	dues   DuesService
	logger *slog.Logger
}

func NewDuesHandler(dues DuesService, logger *slog.Logger) *DuesHandler {
	return &DuesHandler{dues: dues, logger: logger}
}

func (h *DuesHandler) Register(r chi.Router) {
	r.Post("/dues", h.handleRecord)
	r.Get("/dues/outstanding", h.handleListOutstanding)
	r.Post("/dues/overdue-sweep", h.handleMarkOverdue)
	r.Get("/dues/{paymentID}", h.handleGet)
	r.Post("/dues/{paymentID}/pay", h.handleMarkPaid)
	r.Post("/dues/{paymentID}/waive", h.handleWaive)
	r.Get("/users/{userID}/dues", h.handleListForUser)
}

func (h *DuesHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req duesService.RecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.dues.Record(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type markPaidRequest struct {
	Method          *duesModel.PaymentMethod `json:"payment_method,omitempty"`
	PaidAt          *time.Time               `json:"paid_at,omitempty"`
	ReferenceNumber string                   `json:"reference_number"`
}

func (h *DuesHandler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	paymentID, err := pathID(r, "paymentID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req markPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var paidAt time.Time
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	p, err := h.dues.MarkPaid(r.Context(), middleware.GetUserID(r.Context()), paymentID, req.Method, paidAt, req.ReferenceNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type waiveRequest struct {
	Reason string `json:"reason"`
}

func (h *DuesHandler) handleWaive(w http.ResponseWriter, r *http.Request) {
	paymentID, err := pathID(r, "paymentID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req waiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.dues.Waive(r.Context(), middleware.GetUserID(r.Context()), paymentID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *DuesHandler) handleMarkOverdue(w http.ResponseWriter, r *http.Request) {
	count, err := h.dues.MarkOverdue(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked_overdue": count})
}

func (h *DuesHandler) handleListOutstanding(w http.ResponseWriter, r *http.Request) {
	rows, err := h.dues.ListOutstanding(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *DuesHandler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.dues.ListForUser(r.Context(), middleware.GetUserID(r.Context()), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *DuesHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	paymentID, err := pathID(r, "paymentID")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.dues.Get(r.Context(), middleware.GetUserID(r.Context()), paymentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
