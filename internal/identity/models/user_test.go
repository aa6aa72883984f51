package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rushledger/pkg/domain-errors"
)

func TestStageTransitions(t *testing.T) {
	cases := []struct {
		from, to Stage
		ok       bool
	}{
		{StageInitial, StageFirstRound, true},
		{StageFirstRound, StageSecondRound, true},
		{StageSecondRound, StageThirdRound, true},
		{StageThirdRound, StageBidExtended, true},
		{StageThirdRound, StageNoBid, true},
		{StageBidExtended, StageBidAccepted, true},
		{StageBidExtended, StageBidDeclined, true},

		// Any non-terminal stage may drop out.
		{StageInitial, StageDropped, true},
		{StageFirstRound, StageNoBid, true},
		{StageBidExtended, StageDropped, true},

		// Skipping rounds or moving backwards is illegal.
		{StageInitial, StageSecondRound, false},
		{StageFirstRound, StageThirdRound, false},
		{StageSecondRound, StageFirstRound, false},
		{StageInitial, StageBidExtended, false},
		{StageSecondRound, StageBidAccepted, false},

		// Terminal stages never move again.
		{StageBidAccepted, StageNoBid, false},
		{StageBidDeclined, StageInitial, false},
		{StageNoBid, StageFirstRound, false},
		{StageDropped, StageDropped, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStageTerminal(t *testing.T) {
	for _, s := range []Stage{StageBidAccepted, StageBidDeclined, StageNoBid, StageDropped} {
		assert.Truef(t, s.Terminal(), "%s", s)
	}
	for _, s := range []Stage{StageInitial, StageFirstRound, StageSecondRound, StageThirdRound, StageBidExtended} {
		assert.Falsef(t, s.Terminal(), "%s", s)
	}
}

func TestNewUser(t *testing.T) {
	now := time.Now()

	t.Run("rushee starts at initial stage", func(t *testing.T) {
		u, err := NewUser(uuid.New(), "auth0|abc", "Rushee@Example.COM", RoleRushee, now)
		require.NoError(t, err)
		require.NotNil(t, u.CandidateStage)
		assert.Equal(t, StageInitial, *u.CandidateStage)
		assert.Equal(t, "rushee@example.com", u.Email)
		assert.True(t, u.IsActive)
	})

	t.Run("non-rushee has no stage", func(t *testing.T) {
		u, err := NewUser(uuid.New(), "auth0|def", "a@b.c", RoleActive, now)
		require.NoError(t, err)
		assert.Nil(t, u.CandidateStage)
	})

	t.Run("missing auth id", func(t *testing.T) {
		_, err := NewUser(uuid.New(), "  ", "a@b.c", RoleActive, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("bad email", func(t *testing.T) {
		_, err := NewUser(uuid.New(), "auth0|x", "not-an-email", RoleActive, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := NewUser(uuid.New(), "auth0|x", "a@b.c", Role("ALUMNI"), now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestCanVote(t *testing.T) {
	cases := []struct {
		role   Role
		active bool
		want   bool
	}{
		{RoleActive, true, true},
		{RoleAdmin, true, true},
		{RolePledge, true, false},
		{RoleRushee, true, false},
		{RoleActive, false, false},
		{RoleAdmin, false, false},
	}
	for _, tc := range cases {
		u := &User{Role: tc.role, IsActive: tc.active}
		assert.Equalf(t, tc.want, u.CanVote(), "%s active=%v", tc.role, tc.active)
	}
}
