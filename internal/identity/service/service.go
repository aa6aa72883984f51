package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rushledger/internal/identity/models"
	"rushledger/internal/platform/metrics"
	dErrors "rushledger/pkg/domain-errors"
	"rushledger/pkg/platform/sentinel"
)

// UserStore is the persistence contract for users. Both the in-memory and the
// Postgres store satisfy it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByAuthID(ctx context.Context, authID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
}

// Service owns the user lifecycle: signup mirroring external auth, profile
// updates, admin role/stage management, and soft deactivation.
type Service struct {
	users   UserStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(users UserStore, opts ...Option) *Service {
	s := &Service{users: users, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest mirrors the external auth provider's signup payload.
type RegisterRequest struct {
	AuthID    string      `json:"auth_id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Phone     string      `json:"phone"`
	Role      models.Role `json:"role"`
}

// Register creates a user on signup. AuthID and email must both be globally
// unique; a duplicate of either fails with a conflict error.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleRushee
	}
	user, err := models.NewUser(uuid.New(), req.AuthID, req.Email, role, s.now())
	if err != nil {
		return nil, err
	}
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Phone = strings.TrimSpace(req.Phone)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "auth id or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.log(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	return user, nil
}

// UpdateProfileRequest carries the self-serviceable profile fields. Nil means
// leave unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// UpdateProfile lets a user edit their own profile, or an admin edit anyone's.
func (s *Service) UpdateProfile(ctx context.Context, callerID, userID uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	caller, err := s.activeCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.ID != userID && !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot edit another user's profile")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required").WithField("email")
		}
		user.Email = email
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered").WithField("email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	return user, nil
}

// ChangeRole moves a user between roles. Admin only. Leaving RUSHEE clears
// the candidate stage; entering RUSHEE restarts the pipeline at INITIAL.
func (s *Service) ChangeRole(ctx context.Context, callerID, userID uuid.UUID, role models.Role) (*models.User, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role).WithField("role")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if role == models.RoleRushee {
		stage := models.StageInitial
		user.CandidateStage = &stage
	} else {
		user.CandidateStage = nil
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}
	s.log(ctx, "role changed", "user_id", user.ID, "role", role)
	return user, nil
}

// AdvanceStage moves a rushee along the recruitment pipeline. Admin only.
// Setting a stage on a non-rushee is a validation error; an edge not present
// in the stage graph is an invalid-state error.
func (s *Service) AdvanceStage(ctx context.Context, callerID, userID uuid.UUID, stage models.Stage) (*models.User, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if !stage.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown stage %q", stage).WithField("candidate_stage")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleRushee {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate stage applies only to rushees").WithField("candidate_stage")
	}
	current := models.StageInitial
	if user.CandidateStage != nil {
		current = *user.CandidateStage
	}
	if !current.CanTransitionTo(stage) {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "cannot move from %s to %s", current, stage)
	}

	user.CandidateStage = &stage
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update stage")
	}

	s.log(ctx, "stage advanced", "user_id", user.ID, "from", current, "to", stage)
	if s.metrics != nil {
		s.metrics.StageTransitions.WithLabelValues(string(stage)).Inc()
	}
	return user, nil
}

// Deactivate soft-deletes a user. Admin only; related records are preserved.
func (s *Service) Deactivate(ctx context.Context, callerID, userID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return dErrors.New(dErrors.CodeInvalidState, "user is already deactivated")
	}
	user.IsActive = false
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate user")
	}
	s.log(ctx, "user deactivated", "user_id", user.ID)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, id)
}

func (s *Service) GetByAuthID(ctx context.Context, authID string) (*models.User, error) {
	user, err := s.users.FindByAuthID(ctx, authID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role).WithField("role")
	}
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

func (s *Service) getUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) activeCaller(ctx context.Context, callerID uuid.UUID) (*models.User, error) {
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsActive {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is deactivated")
	}
	return caller, nil
}

func (s *Service) requireAdmin(ctx context.Context, callerID uuid.UUID) (*models.User, error) {
	caller, err := s.activeCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return caller, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
