package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "rushledger/pkg/domain-errors"
)

// Role is a user's chapter role.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleActive Role = "ACTIVE"
	RolePledge Role = "PLEDGE"
	RoleRushee Role = "RUSHEE"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleActive, RolePledge, RoleRushee:
		return true
	}
	return false
}

// Stage is a rushee's position in the recruitment pipeline. It is meaningful
// only while Role is RUSHEE.
type Stage string

const (
	StageInitial     Stage = "INITIAL"
	StageFirstRound  Stage = "FIRST_ROUND"
	StageSecondRound Stage = "SECOND_ROUND"
	StageThirdRound  Stage = "THIRD_ROUND"
	StageBidExtended Stage = "BID_EXTENDED"
	StageBidAccepted Stage = "BID_ACCEPTED"
	StageBidDeclined Stage = "BID_DECLINED"
	StageNoBid       Stage = "NO_BID"
	StageDropped     Stage = "DROPPED"
)

func (s Stage) Valid() bool {
	_, ok := stageEdges[s]
	return ok || s.Terminal()
}

// Terminal reports whether the stage ends the pipeline.
func (s Stage) Terminal() bool {
	switch s {
	case StageBidAccepted, StageBidDeclined, StageNoBid, StageDropped:
		return true
	}
	return false
}

// stageEdges is the legal progression graph. Every non-terminal stage may
// additionally move to NO_BID or DROPPED.
var stageEdges = map[Stage][]Stage{
	StageInitial:     {StageFirstRound},
	StageFirstRound:  {StageSecondRound},
	StageSecondRound: {StageThirdRound},
	StageThirdRound:  {StageBidExtended, StageNoBid},
	StageBidExtended: {StageBidAccepted, StageBidDeclined},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Stage) CanTransitionTo(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageNoBid || next == StageDropped {
		return true
	}
	for _, edge := range stageEdges[s] {
		if edge == next {
			return true
		}
	}
	return false
}

// User is the identity aggregate.
//
// Invariants:
//   - AuthID and Email are globally unique (store-enforced)
//   - CandidateStage is non-nil iff Role is RUSHEE
//   - Stage changes follow the stageEdges graph
//   - Users are never hard-deleted; IsActive is the soft-delete flag
type User struct {
	ID             uuid.UUID `json:"id"`
	AuthID         string    `json:"auth_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Phone          string    `json:"phone"`
	Role           Role      `json:"role"`
	CandidateStage *Stage    `json:"candidate_stage,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanVote reports whether the user may cast ballots.
func (u *User) CanVote() bool {
	return u.IsActive && (u.Role == RoleActive || u.Role == RoleAdmin)
}

// NewUser constructs a User mirroring an external-auth signup. Rushees start
// at the INITIAL stage; every other role carries no stage.
func NewUser(id uuid.UUID, authID, email string, role Role, now time.Time) (*User, error) {
	authID = strings.TrimSpace(authID)
	email = strings.ToLower(strings.TrimSpace(email))
	if authID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "auth id is required").WithField("auth_id")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required").WithField("email")
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role).WithField("role")
	}

	u := &User{
		ID:        id,
		AuthID:    authID,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role == RoleRushee {
		stage := StageInitial
		u.CandidateStage = &stage
	}
	return u, nil
}
