package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/models"
)

func newTeamService(f *fixture) TeamService {
	return NewTeamService(f.tx, f.teams, f.users, f.validator, f.publisher, f.logger)
}

func TestRegisterTeam(t *testing.T) {
	f := newFixture()
	svc := newTeamService(f)
	ctx := context.Background()
	leader := f.addUser("lead@example.com")
	email := "bob@example.com"

	team, err := svc.RegisterTeam(ctx, leader.ID, RegisterTeamInput{
		Name:    "  Rockets ",
		Members: []TeamMemberInput{{Name: "Alice"}, {Name: "Bob", Email: &email}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rockets", team.Name)
	assert.Equal(t, models.TeamStatusPending, team.Status)
	assert.Len(t, team.Members, 2)

	_, err = svc.RegisterTeam(ctx, leader.ID, RegisterTeamInput{Name: "Second"})
	assert.ErrorIs(t, err, ErrTeamAlreadyRegistered)

	loaded, err := svc.GetTeamByLeader(ctx, leader.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Members, 2)
	require.NotNil(t, loaded.Leader)
	assert.Empty(t, loaded.Leader.PasswordHash)
}

func TestRegisterTeamValidation(t *testing.T) {
	f := newFixture()
	svc := newTeamService(f)
	leader := f.addUser("lead@example.com")
	bad := "nope"

	_, err := svc.RegisterTeam(context.Background(), leader.ID, RegisterTeamInput{
		Name:    "Rockets",
		Members: []TeamMemberInput{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "members")

	_, err = svc.RegisterTeam(context.Background(), leader.ID, RegisterTeamInput{
		Name:    "Rockets",
		Members: []TeamMemberInput{{Name: "a", Email: &bad}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "members[0].email")
}

func TestRegisterTeamPropagatesStorageErrors(t *testing.T) {
	f := newFixture()
	svc := newTeamService(f)
	leader := f.addUser("lead@example.com")
	f.store.failNext = errStorageDown

	_, err := svc.RegisterTeam(context.Background(), leader.ID, RegisterTeamInput{
		Name:    "Rockets",
		Members: []TeamMemberInput{{Name: "a"}},
	})
	assert.ErrorIs(t, err, errStorageDown)
}

func TestUpdateTeamStatus(t *testing.T) {
	f := newFixture()
	svc := newTeamService(f)
	ctx := context.Background()
	team := f.addTeam("alpha", models.TeamStatusPending)

	got, err := svc.UpdateStatus(ctx, team.ID, models.TeamStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.TeamStatusApproved, got.Status)
	assert.Contains(t, f.publisher.types(), eventTeamStatusChanged)

	_, err = svc.UpdateStatus(ctx, team.ID, models.TeamStatusPending)
	assert.ErrorIs(t, err, ErrTeamInvalidStatusTransition)

	_, err = svc.UpdateStatus(ctx, 9999, models.TeamStatusApproved)
	assert.ErrorIs(t, err, ErrTeamNotFound)

	approved := models.TeamStatusApproved
	teams, err := svc.ListTeams(ctx, &approved, 0, 0)
	require.NoError(t, err)
	assert.Len(t, teams, 1)
}
