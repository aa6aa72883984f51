package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is the interviewer's overall call on a candidate.
type Recommendation string

const (
	RecStrongBid   Recommendation = "STRONG_BID"
	RecBid         Recommendation = "BID"
	RecNeutral     Recommendation = "NEUTRAL"
	RecNoBid       Recommendation = "NO_BID"
	RecStrongNoBid Recommendation = "STRONG_NO_BID"
)

func (r Recommendation) Valid() bool {
	switch r {
	case RecStrongBid, RecBid, RecNeutral, RecNoBid, RecStrongNoBid:
		return true
	}
	return false
}

// QA is a single question asked during the interview and the answer given.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Interview is a structured record of a one-on-one with a candidate. It may
// stay open across sessions; ratings and the recommendation are only required
// once the interview is marked complete.
type Interview struct {
	ID             uuid.UUID       `json:"id"`
	EventID        *uuid.UUID      `json:"event_id,omitempty"`
	InterviewerID  uuid.UUID       `json:"interviewer_id"`
	CandidateID    uuid.UUID       `json:"candidate_id"`
	InterviewDate  time.Time       `json:"interview_date"`
	Questions      []QA            `json:"questions"`
	Notes          string          `json:"notes"`
	OverallRating  *int            `json:"overall_rating,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Strengths      []string        `json:"strengths"`
	Concerns       []string        `json:"concerns"`
	IsComplete     bool            `json:"is_complete"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
