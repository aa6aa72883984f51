package models

import (
	"time"

	"github.com/google/uuid"
)

type VoteType string

const (
	VoteBid     VoteType = "BID"
	VoteNoBid   VoteType = "NO_BID"
	VoteAbstain VoteType = "ABSTAIN"
)

func (t VoteType) Valid() bool {
	switch t {
	case VoteBid, VoteNoBid, VoteAbstain:
		return true
	}
	return false
}

type RoundStatus string

const (
	RoundOpen   RoundStatus = "OPEN"
	RoundClosed RoundStatus = "CLOSED"
)

// Round is a named voting phase. A voter casts at most one ballot per
// candidate within a round, and may revise it only while the round is OPEN.
type Round struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	EventID   *uuid.UUID  `json:"event_id,omitempty"`
	Status    RoundStatus `json:"status"`
	OpenedAt  time.Time   `json:"opened_at"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (r *Round) IsOpen() bool { return r.Status == RoundOpen }

// Ballot is a single member's recorded decision on a candidate for a round.
//
// Invariants:
//   - (RoundID, VoterID, CandidateID) is unique
//   - Value, when present, lies in [1,10]
//   - Notes are visible only to the voter and admins
//   - IsAnonymous masks the voter in admin-facing reports; it is a display
//     concern, the row always stores the real voter
type Ballot struct {
	ID          uuid.UUID  `json:"id"`
	RoundID     uuid.UUID  `json:"round_id"`
	EventID     *uuid.UUID `json:"event_id,omitempty"`
	VoterID     uuid.UUID  `json:"voter_id"`
	CandidateID uuid.UUID  `json:"candidate_id"`
	Type        VoteType   `json:"vote_type"`
	Value       *int       `json:"vote_value,omitempty"`
	Notes       string     `json:"notes"`
	IsAnonymous bool       `json:"is_anonymous"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CandidateTally is one candidate's aggregate for a round. It deliberately
// has no per-voter fields: this is the only shape non-admin callers ever see.
type CandidateTally struct {
	CandidateID  uuid.UUID `json:"candidate_id"`
	Bid          int       `json:"bid"`
	NoBid        int       `json:"no_bid"`
	Abstain      int       `json:"abstain"`
	Total        int       `json:"total"`
	AverageValue *float64  `json:"average_value,omitempty"`
}

// RoundResults is the aggregated read model for a round.
type RoundResults struct {
	RoundID    uuid.UUID        `json:"round_id"`
	RoundName  string           `json:"round_name"`
	Status     RoundStatus      `json:"status"`
	Candidates []CandidateTally `json:"candidates"`
}
