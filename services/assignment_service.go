package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
)

type AssignmentInput struct {
	StageID      int       `json:"stage_id" validate:"required,gte=1"`
	Title        string    `json:"title" validate:"required,max=255"`
	Description  *string   `json:"description" validate:"omitempty,max=5000"`
	Instructions *string   `json:"instructions" validate:"omitempty,max=10000"`
	Deadline     time.Time `json:"deadline" validate:"required"`
	IsActive     *bool     `json:"is_active"`
}

// TeamAssignments - задания гейтового этапа так, как их видит команда.
type TeamAssignments struct {
	Stage       *models.Stage           `json:"stage"`
	Assignments []models.AssignmentView `json:"assignments"`
}

type AssignmentService interface {
	CreateAssignment(ctx context.Context, input AssignmentInput, creatorID int) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, id int, input AssignmentInput) (*models.Assignment, error)
	SetActive(ctx context.Context, id int, active bool) (*models.Assignment, error)
	GetAssignment(ctx context.Context, id int) (*models.Assignment, error)
	ListAssignments(ctx context.Context, stageID int, activeOnly bool) ([]models.AssignmentView, error)
	ListForTeam(ctx context.Context, teamID int) (*TeamAssignments, error)
}

type assignmentService struct {
	assignmentRepo repositories.AssignmentRepository
	submissionRepo repositories.SubmissionRepository
	stageRepo      repositories.StageRepository
	gate           StageGate
	validator      *Validator
	now            Clock
}

func NewAssignmentService(
	assignmentRepo repositories.AssignmentRepository,
	submissionRepo repositories.SubmissionRepository,
	stageRepo repositories.StageRepository,
	gate StageGate,
	validator *Validator,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		submissionRepo: submissionRepo,
		stageRepo:      stageRepo,
		gate:           gate,
		validator:      validator,
		now:            systemClock,
	}
}

func (s *assignmentService) CreateAssignment(ctx context.Context, input AssignmentInput, creatorID int) (*models.Assignment, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.stageRepo.GetByID(ctx, input.StageID); err != nil {
		return nil, handleRepositoryError(err)
	}

	a := &models.Assignment{
		StageID:      input.StageID,
		Title:        input.Title,
		Description:  input.Description,
		Instructions: input.Instructions,
		Deadline:     input.Deadline.UTC(),
		IsActive:     true,
		CreatedBy:    creatorID,
	}
	if input.IsActive != nil {
		a.IsActive = *input.IsActive
	}
	if err := s.assignmentRepo.Create(ctx, a); err != nil {
		return nil, handleRepositoryError(err)
	}
	return a, nil
}

func (s *assignmentService) UpdateAssignment(ctx context.Context, id int, input AssignmentInput) (*models.Assignment, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	a.StageID = input.StageID
	a.Title = input.Title
	a.Description = input.Description
	a.Instructions = input.Instructions
	a.Deadline = input.Deadline.UTC()
	if input.IsActive != nil {
		a.IsActive = *input.IsActive
	}
	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, handleRepositoryError(err)
	}
	return a, nil
}

func (s *assignmentService) SetActive(ctx context.Context, id int, active bool) (*models.Assignment, error) {
	if err := s.assignmentRepo.SetActive(ctx, id, active); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.GetAssignment(ctx, id)
}

func (s *assignmentService) GetAssignment(ctx context.Context, id int) (*models.Assignment, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return a, nil
}

// ListAssignments is ordered by deadline ascending.
func (s *assignmentService) ListAssignments(ctx context.Context, stageID int, activeOnly bool) ([]models.AssignmentView, error) {
	if _, err := s.stageRepo.GetByID(ctx, stageID); err != nil {
		return nil, handleRepositoryError(err)
	}
	assignments, err := s.assignmentRepo.ListByStage(ctx, stageID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for stage %d: %w", stageID, err)
	}

	now := s.now()
	views := make([]models.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, models.NewAssignmentView(a, now))
	}
	return views, nil
}

// ListForTeam returns the active assignments of the gated stage together with
// the team's own submissions. Denied teams get ErrAccessDenied with the reason.
func (s *assignmentService) ListForTeam(ctx context.Context, teamID int) (*TeamAssignments, error) {
	decision, stage, err := s.gate.CanAccessGatedStage(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decision.Err()
	}

	var (
		assignments []models.Assignment
		submissions []*models.Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assignments, err = s.assignmentRepo.ListByStage(gctx, stage.ID, true)
		return err
	})
	g.Go(func() error {
		var err error
		submissions, err = s.submissionRepo.ListByTeam(gctx, teamID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load assignments for team %d: %w", teamID, err)
	}

	byAssignment := make(map[int]*models.Submission, len(submissions))
	for _, sub := range submissions {
		byAssignment[sub.AssignmentID] = sub
	}

	now := s.now()
	views := make([]models.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		view := models.NewAssignmentView(a, now)
		if sub, ok := byAssignment[a.ID]; ok {
			sub.IsLate = sub.IsLateFor(a.Deadline)
			view.Submission = sub
		}
		views = append(views, view)
	}
	return &TeamAssignments{Stage: stage, Assignments: views}, nil
}
