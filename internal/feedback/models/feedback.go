package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is a free-text or rated note on a candidate. There is no
// uniqueness constraint: members submit iteratively over a rush season.
//
// Visibility tiers (applied at read time, never at storage):
//   - the author always sees their own entries
//   - admins see everything
//   - actives see all non-private entries
//   - pledges and rushees see only what they authored
//   - IsAnonymous blanks the author for non-admin readers
type Feedback struct {
	ID          uuid.UUID  `json:"id"`
	EventID     *uuid.UUID `json:"event_id,omitempty"`
	AuthorID    uuid.UUID  `json:"author_id"`
	CandidateID uuid.UUID  `json:"candidate_id"`
	Rating      *int       `json:"rating,omitempty"`
	Comment     string     `json:"comment"`
	Tags        []string   `json:"tags"`
	IsAnonymous bool       `json:"is_anonymous"`
	IsPrivate   bool       `json:"is_private"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
