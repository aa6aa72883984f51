package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	identityModel "rushledger/internal/identity/models"
	identityService "rushledger/internal/identity/service"
	"rushledger/internal/platform/middleware"
	dErrors "rushledger/pkg/domain-errors"
)

// UserService is the slice of the identity service the user endpoints use.
type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identityModel.User, error)
	ListByRole(ctx context.Context, role identityModel.Role) ([]*identityModel.User, error)
	UpdateProfile(ctx context.Context, callerID, userID uuid.UUID, req identityService.UpdateProfileRequest) (*identityModel.User, error)
	ChangeRole(ctx context.Context, callerID, userID uuid.UUID, role identityModel.Role) (*identityModel.User, error)
	AdvanceStage(ctx context.Context, callerID, userID uuid.UUID, stage identityModel.Stage) (*identityModel.User, error)
	Deactivate(ctx context.Context, callerID, userID uuid.UUID) error
}

// UserHandler exposes profile and roster management.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) Register(r chi.Router) {
	r.Get("/users/me", h.handleMe)
	r.Get("/users/{userID}", h.handleGet)
	r.Get("/users", h.handleList)
	r.Patch("/users/{userID}", h.handleUpdateProfile)
	r.Put("/users/{userID}/role", h.handleChangeRole)
	r.Put("/users/{userID}/stage", h.handleAdvanceStage)
	r.Delete("/users/{userID}", h.handleDeactivate)
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	role := identityModel.Role(r.URL.Query().Get("role"))
	if role == "" {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "role query parameter is required").WithField("role"))
		return
	}
	users, err := h.users.ListByRole(r.Context(), role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req identityService.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type changeRoleRequest struct {
	Role identityModel.Role `json:"role"`
}

func (h *UserHandler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.ChangeRole(r.Context(), middleware.GetUserID(r.Context()), userID, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type advanceStageRequest struct {
	Stage identityModel.Stage `json:"candidate_stage"`
}

func (h *UserHandler) handleAdvanceStage(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req advanceStageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.AdvanceStage(r.Context(), middleware.GetUserID(r.Context()), userID, req.Stage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.Deactivate(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
