package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "rushledger/pkg/domain-errors"
)

type EventType string

const (
	TypeDinner    EventType = "DINNER"
	TypeSmoker    EventType = "SMOKER"
	TypeInterview EventType = "INTERVIEW"
	TypeSocial    EventType = "SOCIAL"
	TypeMeeting   EventType = "MEETING"
	TypeOther     EventType = "OTHER"
)

func (t EventType) Valid() bool {
	switch t {
	case TypeDinner, TypeSmoker, TypeInterview, TypeSocial, TypeMeeting, TypeOther:
		return true
	}
	return false
}

// Event is a scheduled recruitment event. CreatedBy is attributional and
// survives the creator's deletion as NULL; events themselves are never
// hard-deleted, only deactivated.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        EventType  `json:"event_type"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Location    string     `json:"location"`
	IsMandatory bool       `json:"is_mandatory"`
	IsVoting    bool       `json:"is_voting"`
	MaxCapacity *int       `json:"max_capacity,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks the invariants that hold for both creates and updates.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required").WithField("title")
	}
	if !e.Type.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", e.Type).WithField("event_type")
	}
	if e.StartTime.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "start time is required").WithField("start_time")
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return dErrors.New(dErrors.CodeValidation, "end time cannot precede start time").WithField("end_time")
	}
	if e.MaxCapacity != nil && *e.MaxCapacity <= 0 {
		return dErrors.New(dErrors.CodeValidation, "max capacity must be positive").WithField("max_capacity")
	}
	return nil
}
