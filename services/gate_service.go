package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
)

// Причины отказа Stage Gate.
const (
	ReasonNotRegistered       = "not registered"
	ReasonRegistrationPending = "registration not approved"
	ReasonConfigurationError  = "configuration error"
	ReasonStageNotReached     = "stage not reached"
)

type AccessDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() AccessDecision {
	return AccessDecision{Allowed: true}
}

func deny(reason string) AccessDecision {
	return AccessDecision{Allowed: false, Reason: reason}
}

// Err converts a negative decision into ErrAccessDenied carrying the reason.
func (d AccessDecision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAccessDenied, d.Reason)
}

// StageGate decides whether a team may see or act on a stage's content.
// It only reads the ledger. Storage failures are returned as errors, never as denials.
type StageGate interface {
	CanAccessStage(ctx context.Context, teamID, stageID int) (AccessDecision, error)
	// GatedStage returns the stage whose content is gated for teams.
	GatedStage(ctx context.Context) (*models.Stage, error)
	CanAccessGatedStage(ctx context.Context, teamID int) (AccessDecision, *models.Stage, error)
}

type stageGate struct {
	teamRepo      repositories.TeamRepository
	stageRepo     repositories.StageRepository
	progressRepo  repositories.ProgressRepository
	gateStageSlug string
}

func NewStageGate(
	teamRepo repositories.TeamRepository,
	stageRepo repositories.StageRepository,
	progressRepo repositories.ProgressRepository,
	gateStageSlug string,
) StageGate {
	return &stageGate{
		teamRepo:      teamRepo,
		stageRepo:     stageRepo,
		progressRepo:  progressRepo,
		gateStageSlug: gateStageSlug,
	}
}

func (g *stageGate) CanAccessStage(ctx context.Context, teamID, stageID int) (AccessDecision, error) {
	team, err := g.teamRepo.GetByID(ctx, teamID)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return deny(ReasonNotRegistered), nil
	}
	if err != nil {
		return AccessDecision{}, fmt.Errorf("stage gate: load team %d: %w", teamID, err)
	}

	_, err = g.stageRepo.GetByID(ctx, stageID)
	if errors.Is(err, repositories.ErrStageNotFound) {
		return deny(ReasonConfigurationError), nil
	}
	if err != nil {
		return AccessDecision{}, fmt.Errorf("stage gate: load stage %d: %w", stageID, err)
	}

	return g.decide(ctx, team, stageID)
}

func (g *stageGate) GatedStage(ctx context.Context) (*models.Stage, error) {
	stage, err := g.stageRepo.GetBySlug(ctx, g.gateStageSlug)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return stage, nil
}

func (g *stageGate) CanAccessGatedStage(ctx context.Context, teamID int) (AccessDecision, *models.Stage, error) {
	team, err := g.teamRepo.GetByID(ctx, teamID)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return deny(ReasonNotRegistered), nil, nil
	}
	if err != nil {
		return AccessDecision{}, nil, fmt.Errorf("stage gate: load team %d: %w", teamID, err)
	}

	stage, err := g.stageRepo.GetBySlug(ctx, g.gateStageSlug)
	if errors.Is(err, repositories.ErrStageNotFound) {
		return deny(ReasonConfigurationError), nil, nil
	}
	if err != nil {
		return AccessDecision{}, nil, fmt.Errorf("stage gate: load stage %q: %w", g.gateStageSlug, err)
	}

	decision, err := g.decide(ctx, team, stage.ID)
	if err != nil {
		return AccessDecision{}, nil, err
	}
	return decision, stage, nil
}

func (g *stageGate) decide(ctx context.Context, team *models.Team, stageID int) (AccessDecision, error) {
	if team.Status != models.TeamStatusApproved {
		return deny(ReasonRegistrationPending), nil
	}

	entry, err := g.progressRepo.GetByTeamAndStage(ctx, team.ID, stageID)
	if errors.Is(err, repositories.ErrProgressNotFound) {
		return deny(ReasonStageNotReached), nil
	}
	if err != nil {
		return AccessDecision{}, fmt.Errorf("stage gate: load progress team %d stage %d: %w", team.ID, stageID, err)
	}
	if entry.Status != models.ProgressApproved {
		return deny(ReasonStageNotReached), nil
	}
	return allow(), nil
}
