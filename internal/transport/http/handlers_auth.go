package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	identityModel "rushledger/internal/identity/models"
	identityService "rushledger/internal/identity/service"
)

// IdentityService is the slice of the identity service the auth endpoints use.
type IdentityService interface {
	Register(ctx context.Context, req identityService.RegisterRequest) (*identityModel.User, error)
	GetByAuthID(ctx context.Context, authID string) (*identityModel.User, error)
}

// TokenIssuer mints access tokens for resolved users.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, expiresIn time.Duration) (string, error)
}

// AuthHandler owns the unauthenticated endpoints: signup and token exchange.
// The upstream auth provider has already verified the caller; we map its
// subject (auth_id) onto a local user and issue a short-lived access token.
type AuthHandler struct {
	identity IdentityService
	tokens   TokenIssuer
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(identity IdentityService, tokens TokenIssuer, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, tokens: tokens, tokenTTL: tokenTTL, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/token", h.handleToken)
}

type tokenResponse struct {
	AccessToken string              `json:"access_token"`
	ExpiresIn   int64               `json:"expires_in"`
	User        *identityModel.User `json:"user"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identityService.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.identity.Register(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "register failed", "error", err.Error())
		writeError(w, err)
		return
	}
	h.issue(w, r, user, http.StatusCreated)
}

type tokenRequest struct {
	AuthID string `json:"auth_id"`
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.identity.GetByAuthID(ctx, req.AuthID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issue(w, r, user, http.StatusOK)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, user *identityModel.User, status int) {
	token, err := h.tokens.GenerateAccessToken(user.ID, h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "token issuance failed", "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, status, tokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
		User:        user,
	})
}
