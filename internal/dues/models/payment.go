package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	TypeInitiation PaymentType = "INITIATION"
	TypeSemester   PaymentType = "SEMESTER"
	TypeSocial     PaymentType = "SOCIAL"
	TypeFine       PaymentType = "FINE"
	TypeOther      PaymentType = "OTHER"
)

func (t PaymentType) Valid() bool {
	switch t {
	case TypeInitiation, TypeSemester, TypeSocial, TypeFine, TypeOther:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodVenmo        PaymentMethod = "VENMO"
	MethodZelle        PaymentMethod = "ZELLE"
	MethodCheck        PaymentMethod = "CHECK"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodOther        PaymentMethod = "OTHER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodVenmo, MethodZelle, MethodCheck, MethodBankTransfer, MethodOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "PAID"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusNotPaid PaymentStatus = "NOT_PAID"
	StatusOverdue PaymentStatus = "OVERDUE"
	StatusWaived  PaymentStatus = "WAIVED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusNotPaid, StatusOverdue, StatusWaived:
		return true
	}
	return false
}

// Outstanding reports whether the payment still needs collecting.
func (s PaymentStatus) Outstanding() bool {
	switch s {
	case StatusNotPaid, StatusPartial, StatusOverdue:
		return true
	}
	return false
}

// Payment is one dues obligation. Amounts are integer cents to avoid float
// drift. PaidAt is present when Status is PAID; the pairing is enforced by
// the service, not the schema.
type Payment struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	AmountCents     int64          `json:"amount_cents"`
	Type            PaymentType    `json:"payment_type"`
	Method          *PaymentMethod `json:"payment_method,omitempty"`
	Status          PaymentStatus  `json:"status"`
	DueDate         time.Time      `json:"due_date"`
	PaidAt          *time.Time     `json:"paid_at,omitempty"`
	Semester        string         `json:"semester"`
	ReferenceNumber string         `json:"reference_number"`
	Notes           string         `json:"notes"`
	RecordedBy      *uuid.UUID     `json:"recorded_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
