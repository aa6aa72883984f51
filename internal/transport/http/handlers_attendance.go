package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	attendanceModel "rushledger/internal/attendance/models"
	"rushledger/internal/platform/middleware"
)

type AttendanceService interface {
	Record(ctx context.Context, callerID, eventID, userID uuid.UUID, status attendanceModel.Status) (*attendanceModel.Attendance, error)
	UpdateStatus(ctx context.Context, callerID, eventID, userID uuid.UUID, status attendanceModel.Status) (*attendanceModel.Attendance, error)
	RSVP(ctx context.Context, eventID, userID uuid.UUID, rsvp attendanceModel.RSVPStatus) (*attendanceModel.Attendance, error)
	CheckIn(ctx context.Context, eventID, userID, adminID uuid.UUID, status attendanceModel.Status, at time.Time) (*attendanceModel.Attendance, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]*attendanceModel.Attendance, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*attendanceModel.Attendance, error)
}

// AttendanceHandler exposes the per-event attendance ledger.
type AttendanceHandler struct {
	attendance AttendanceService
	logger     *slog.Logger
}

func NewAttendanceHandler(attendance AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, logger: logger}
}

func (h *AttendanceHandler) Register(r chi.Router) {
	r.Post("/events/{eventID}/attendance", h.handleRecord)
	r.Put("/events/{eventID}/attendance/{userID}", h.handleUpdateStatus)
	r.Post("/events/{eventID}/rsvp", h.handleRSVP)
	r.Post("/events/{eventID}/checkin", h.handleCheckIn)
	r.Get("/events/{eventID}/attendance", h.handleListForEvent)
	r.Get("/users/{userID}/attendance", h.handleListForUser)
}

type recordAttendanceRequest struct {
	UserID uuid.UUID              `json:"user_id"`
	Status attendanceModel.Status `json:"status"`
}

func (h *AttendanceHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req recordAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	att, err := h.attendance.Record(r.Context(), middleware.GetUserID(r.Context()), eventID, req.UserID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, att)
}

type updateAttendanceRequest struct {
	Status attendanceModel.Status `json:"status"`
}

func (h *AttendanceHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	att, err := h.attendance.UpdateStatus(r.Context(), middleware.GetUserID(r.Context()), eventID, userID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

type rsvpRequest struct {
	RSVPStatus attendanceModel.RSVPStatus `json:"rsvp_status"`
}

func (h *AttendanceHandler) handleRSVP(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req rsvpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	att, err := h.attendance.RSVP(r.Context(), eventID, middleware.GetUserID(r.Context()), req.RSVPStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

type checkInRequest struct {
	UserID      uuid.UUID              `json:"user_id"`
	Status      attendanceModel.Status `json:"status"`
	CheckedInAt *time.Time             `json:"checked_in_at,omitempty"`
}

func (h *AttendanceHandler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req checkInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var at time.Time
	if req.CheckedInAt != nil {
		at = *req.CheckedInAt
	}
	att, err := h.attendance.CheckIn(r.Context(), eventID, req.UserID, middleware.GetUserID(r.Context()), req.Status, at)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

func (h *AttendanceHandler) handleListForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.attendance.ListForEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *AttendanceHandler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.attendance.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
