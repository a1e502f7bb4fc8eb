package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/competition-system/live"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
)

const eventTeamStatusChanged = "TEAM_STATUS_CHANGED"

type TeamMemberInput struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

type RegisterTeamInput struct {
	Name    string            `json:"name" validate:"required,min=2,max=100"`
	Members []TeamMemberInput `json:"members" validate:"max=3,dive"`
}

type TeamService interface {
	RegisterTeam(ctx context.Context, leaderID int, input RegisterTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	GetTeamByLeader(ctx context.Context, leaderID int) (*models.Team, error)
	ListTeams(ctx context.Context, status *models.TeamStatus, limit, offset int) ([]models.Team, error)
	UpdateStatus(ctx context.Context, id int, status models.TeamStatus) (*models.Team, error)
}

type teamService struct {
	tx        repositories.TxManager
	teamRepo  repositories.TeamRepository
	userRepo  repositories.UserRepository
	validator *Validator
	publisher live.Publisher
	logger    *slog.Logger
}

func NewTeamService(
	tx repositories.TxManager,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	validator *Validator,
	publisher live.Publisher,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		tx:        tx,
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		validator: validator,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterTeam creates the team of leaderID in pending status with its members.
// A user leads at most one team.
func (s *teamService) RegisterTeam(ctx context.Context, leaderID int, input RegisterTeamInput) (*models.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	if _, err := s.teamRepo.GetByLeaderID(ctx, leaderID); err == nil {
		return nil, ErrTeamAlreadyRegistered
	} else if !errors.Is(err, repositories.ErrTeamNotFound) {
		return nil, err
	}

	team := &models.Team{
		Name:     input.Name,
		LeaderID: leaderID,
		Status:   models.TeamStatusPending,
	}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamLeaderInvalid) {
				return ErrNotFound
			}
			return handleRepositoryError(err)
		}
		team.Members = make([]models.TeamMember, 0, len(input.Members))
		for _, in := range input.Members {
			member := models.TeamMember{TeamID: team.ID, Name: strings.TrimSpace(in.Name), Email: in.Email}
			if err := s.teamRepo.AddMember(ctx, exec, &member); err != nil {
				return handleRepositoryError(err)
			}
			team.Members = append(team.Members, member)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team registered", slog.Int("team_id", team.ID), slog.Int("leader_id", leaderID))
	s.publish(live.AdminRoom, team)
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.withDetails(ctx, team)
}

func (s *teamService) GetTeamByLeader(ctx context.Context, leaderID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByLeaderID(ctx, leaderID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.withDetails(ctx, team)
}

func (s *teamService) ListTeams(ctx context.Context, status *models.TeamStatus, limit, offset int) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx, repositories.ListTeamsFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *teamService) UpdateStatus(ctx context.Context, id int, status models.TeamStatus) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if team.Status == status {
		return team, nil
	}
	if !isValidTeamTransition(team.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTeamInvalidStatusTransition, team.Status, status)
	}
	if err := s.teamRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, handleRepositoryError(err)
	}
	team.Status = status

	s.logger.Info("team status changed", slog.Int("team_id", id), slog.String("status", string(status)))
	s.publish(live.TeamRoom(id), team)
	return team, nil
}

func (s *teamService) withDetails(ctx context.Context, team *models.Team) (*models.Team, error) {
	members, err := s.teamRepo.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	team.Members = members

	leader, err := s.userRepo.GetByID(ctx, team.LeaderID)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}
	if leader != nil {
		leader.PasswordHash = ""
		team.Leader = leader
	}
	return team, nil
}

func (s *teamService) publish(room string, team *models.Team) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(room, live.Event{Type: eventTeamStatusChanged, Payload: team})
}
