package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type StageInput struct {
	Slug     string     `json:"slug" validate:"required,max=64"`
	Name     string     `json:"name" validate:"required,max=255"`
	Sequence int        `json:"sequence" validate:"gte=1"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

type StageService interface {
	ListStages(ctx context.Context) ([]models.Stage, error)
	GetStage(ctx context.Context, id int) (*models.Stage, error)
	CreateStage(ctx context.Context, input StageInput) (*models.Stage, error)
	UpdateStage(ctx context.Context, id int, input StageInput) (*models.Stage, error)
}

type stageService struct {
	stageRepo repositories.StageRepository
	validator *Validator
}

func NewStageService(stageRepo repositories.StageRepository, validator *Validator) StageService {
	return &stageService{stageRepo: stageRepo, validator: validator}
}

func (s *stageService) ListStages(ctx context.Context) ([]models.Stage, error) {
	stages, err := s.stageRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	return stages, nil
}

func (s *stageService) GetStage(ctx context.Context, id int) (*models.Stage, error) {
	stage, err := s.stageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return stage, nil
}

func (s *stageService) validate(input StageInput) error {
	if err := s.validator.Struct(input); err != nil {
		return err
	}
	if !slugPattern.MatchString(input.Slug) {
		return newFieldError("slug", "slug must contain lowercase letters, digits and single dashes")
	}
	return validateStageWindow(input.StartsAt, input.EndsAt)
}

func (s *stageService) CreateStage(ctx context.Context, input StageInput) (*models.Stage, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	stage := &models.Stage{
		Slug:     input.Slug,
		Name:     input.Name,
		Sequence: input.Sequence,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
	}
	if err := s.stageRepo.Create(ctx, stage); err != nil {
		return nil, handleRepositoryError(err)
	}
	return stage, nil
}

// UpdateStage is refused once any team holds a progress entry for the stage.
func (s *stageService) UpdateStage(ctx context.Context, id int, input StageInput) (*models.Stage, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	stage, err := s.stageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	inUse, err := s.stageRepo.HasProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, ErrStageLocked
	}

	stage.Slug = input.Slug
	stage.Name = input.Name
	stage.Sequence = input.Sequence
	stage.StartsAt = input.StartsAt
	stage.EndsAt = input.EndsAt

	if err := s.stageRepo.Update(ctx, stage); err != nil {
		return nil, handleRepositoryError(err)
	}
	return stage, nil
}
