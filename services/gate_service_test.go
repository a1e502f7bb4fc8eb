package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/models"
)

func TestCanAccessStage(t *testing.T) {
	f := newFixture()
	gate := f.gate("preliminary")
	ctx := context.Background()
	st := f.addStage("preliminary", 2, nil, nil)

	approvedTeam := f.addTeam("approved", models.TeamStatusApproved)
	f.addProgress(approvedTeam.ID, st.ID, models.ProgressApproved)

	inProgressTeam := f.addTeam("working", models.TeamStatusApproved)
	f.addProgress(inProgressTeam.ID, st.ID, models.ProgressInProgress)

	noEntryTeam := f.addTeam("fresh", models.TeamStatusApproved)

	pendingTeam := f.addTeam("pending", models.TeamStatusPending)
	f.addProgress(pendingTeam.ID, st.ID, models.ProgressApproved)

	tests := []struct {
		name    string
		teamID  int
		stageID int
		want    AccessDecision
	}{
		{name: "approved entry", teamID: approvedTeam.ID, stageID: st.ID, want: AccessDecision{Allowed: true}},
		{name: "entry not approved", teamID: inProgressTeam.ID, stageID: st.ID, want: AccessDecision{Reason: ReasonStageNotReached}},
		{name: "entry missing", teamID: noEntryTeam.ID, stageID: st.ID, want: AccessDecision{Reason: ReasonStageNotReached}},
		{name: "registration pending", teamID: pendingTeam.ID, stageID: st.ID, want: AccessDecision{Reason: ReasonRegistrationPending}},
		{name: "unknown team", teamID: 9999, stageID: st.ID, want: AccessDecision{Reason: ReasonNotRegistered}},
		{name: "unknown stage", teamID: approvedTeam.ID, stageID: 9999, want: AccessDecision{Reason: ReasonConfigurationError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.CanAccessStage(ctx, tt.teamID, tt.stageID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanAccessStagePropagatesStorageErrors(t *testing.T) {
	f := newFixture()
	team := f.addTeam("alpha", models.TeamStatusApproved)
	st := f.addStage("preliminary", 1, nil, nil)
	f.store.failNext = errStorageDown

	_, err := f.gate("preliminary").CanAccessStage(context.Background(), team.ID, st.ID)
	assert.ErrorIs(t, err, errStorageDown)
}

func TestCanAccessGatedStage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addStage("registration", 1, nil, nil)
	prelim := f.addStage("preliminary", 2, nil, nil)
	team := f.addTeam("alpha", models.TeamStatusApproved)
	f.addProgress(team.ID, prelim.ID, models.ProgressApproved)

	decision, stage, err := f.gate("preliminary").CanAccessGatedStage(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.NotNil(t, stage)
	assert.Equal(t, prelim.ID, stage.ID)

	decision, stage, err = f.gate("semifinal").CanAccessGatedStage(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonConfigurationError, decision.Reason)
	assert.Nil(t, stage)
}

func TestAccessDecisionErr(t *testing.T) {
	assert.NoError(t, allow().Err())

	err := deny(ReasonStageNotReached).Err()
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Contains(t, err.Error(), ReasonStageNotReached)
}
