package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rushledger/internal/dues/models"
	identity "rushledger/internal/identity/models"
	"rushledger/internal/platform/metrics"
	dErrors "rushledger/pkg/domain-errors"
	"rushledger/pkg/platform/sentinel"
)

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	Update(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListOutstanding(ctx context.Context) ([]*models.Payment, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Payment, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Service owns the dues ledger. All writes go through an admin; members can
// only read their own history.
type Service struct {
	payments PaymentStore
	users    UserDirectory
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	grace    time.Duration
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

// WithGracePeriod sets how far before the due date a payment may be marked
// paid. Zero disables the check.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Service) { s.grace = d }
}

func New(payments PaymentStore, users UserDirectory, opts ...Option) *Service {
	s := &Service{payments: payments, users: users, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RecordRequest struct {
	UserID          uuid.UUID
	AmountCents     int64
	Type            models.PaymentType
	Method          *models.PaymentMethod
	DueDate         time.Time
	Semester        string
	ReferenceNumber string
	Notes           string
}

// Record creates a new dues obligation for a member. Admin only.
func (s *Service) Record(ctx context.Context, adminID uuid.UUID, req RecordRequest) (*models.Payment, error) {
	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if req.AmountCents < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must not be negative").WithField("amount_cents")
	}
	if !req.Type.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment type %q", req.Type).WithField("payment_type")
	}
	if req.Method != nil && !req.Method.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment method %q", *req.Method).WithField("payment_method")
	}
	if req.DueDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "due date is required").WithField("due_date")
	}
	if req.Semester == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "semester is required").WithField("semester")
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	now := s.now()
	p := &models.Payment{
		ID:              uuid.New(),
		UserID:          req.UserID,
		AmountCents:     req.AmountCents,
		Type:            req.Type,
		Method:          req.Method,
		Status:          models.StatusNotPaid,
		DueDate:         req.DueDate,
		Semester:        req.Semester,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		RecordedBy:      &admin.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
	}
	s.log(ctx, "dues recorded", "payment_id", p.ID, "user_id", p.UserID, "amount_cents", p.AmountCents)
	if s.metrics != nil {
		s.metrics.PaymentsRecorded.Inc()
	}
	return p, nil
}

// MarkPaid settles an obligation. The status and timestamp move together;
// there is no paid-without-timestamp state.
func (s *Service) MarkPaid(ctx context.Context, adminID, paymentID uuid.UUID, method *models.PaymentMethod, paidAt time.Time, reference string) (*models.Payment, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	p, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusPaid {
		return nil, dErrors.New(dErrors.CodeInvalidState, "payment is already settled")
	}
	if p.Status == models.StatusWaived {
		return nil, dErrors.New(dErrors.CodeInvalidState, "payment has been waived")
	}
	if method != nil && !method.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment method %q", *method).WithField("payment_method")
	}
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	if s.grace > 0 && paidAt.Before(p.DueDate.Add(-s.grace)) {
		return nil, dErrors.New(dErrors.CodeValidation, "paid date is too far before the due date").WithField("paid_at")
	}

	p.Status = models.StatusPaid
	p.PaidAt = &paidAt
	if method != nil {
		p.Method = method
	}
	if reference != "" {
		p.ReferenceNumber = reference
	}
	p.UpdatedAt = s.now()

	if err := s.payments.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark payment paid")
	}
	s.log(ctx, "dues settled", "payment_id", p.ID, "user_id", p.UserID)
	return p, nil
}

// Waive cancels an obligation without payment. Admin only.
func (s *Service) Waive(ctx context.Context, adminID, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	p, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusPaid {
		return nil, dErrors.New(dErrors.CodeInvalidState, "payment is already settled")
	}
	if p.Status == models.StatusWaived {
		return nil, dErrors.New(dErrors.CodeInvalidState, "payment has been waived")
	}

	p.Status = models.StatusWaived
	if reason != "" {
		p.Notes = reason
	}
	p.UpdatedAt = s.now()

	if err := s.payments.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to waive payment")
	}
	s.log(ctx, "dues waived", "payment_id", p.ID, "user_id", p.UserID)
	return p, nil
}

// MarkOverdue flips unpaid obligations whose due date has passed. Admin only;
// run on demand rather than by a background sweeper.
func (s *Service) MarkOverdue(ctx context.Context, adminID uuid.UUID) (int, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return 0, err
	}
	outstanding, err := s.payments.ListOutstanding(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list outstanding dues")
	}

	now := s.now()
	flipped := 0
	for _, p := range outstanding {
		if p.Status == models.StatusOverdue || !p.DueDate.Before(now) {
			continue
		}
		p.Status = models.StatusOverdue
		p.UpdatedAt = now
		if err := s.payments.Update(ctx, p); err != nil {
			return flipped, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark payment overdue")
		}
		flipped++
	}
	if flipped > 0 {
		s.log(ctx, "dues marked overdue", "count", flipped)
	}
	return flipped, nil
}

// ListOutstanding reports every unsettled obligation. Admin only.
func (s *Service) ListOutstanding(ctx context.Context, adminID uuid.UUID) ([]*models.Payment, error) {
	if _, err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	rows, err := s.payments.ListOutstanding(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list outstanding dues")
	}
	return rows, nil
}

// ListForUser returns a member's payment history. Self or admin.
func (s *Service) ListForUser(ctx context.Context, callerID, userID uuid.UUID) ([]*models.Payment, error) {
	if callerID != userID {
		if _, err := s.requireAdmin(ctx, callerID); err != nil {
			return nil, err
		}
	}
	rows, err := s.payments.ListForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return rows, nil
}

func (s *Service) Get(ctx context.Context, callerID, paymentID uuid.UUID) (*models.Payment, error) {
	p, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != callerID {
		if _, err := s.requireAdmin(ctx, callerID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) getPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	return p, nil
}

func (s *Service) requireAdmin(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !u.IsActive || !u.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return u, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
