package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusExcused Status = "EXCUSED"
	StatusLate    Status = "LATE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPresent, StatusAbsent, StatusExcused, StatusLate:
		return true
	}
	return false
}

type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "GOING"
	RSVPMaybe    RSVPStatus = "MAYBE"
	RSVPNotGoing RSVPStatus = "NOT_GOING"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return true
	}
	return false
}

// Attendance is one row per (event, user) pair; the pair is unique. Check-in
// facts (CheckedInAt, CheckedInBy) are always populated together.
type Attendance struct {
	ID          uuid.UUID   `json:"id"`
	EventID     uuid.UUID   `json:"event_id"`
	UserID      uuid.UUID   `json:"user_id"`
	Status      Status      `json:"status"`
	RSVPStatus  *RSVPStatus `json:"rsvp_status,omitempty"`
	CheckedInAt *time.Time  `json:"checked_in_at,omitempty"`
	CheckedInBy *uuid.UUID  `json:"checked_in_by,omitempty"`
	Notes       string      `json:"notes"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
