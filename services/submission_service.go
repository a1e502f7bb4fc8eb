package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/competition-system/live"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
)

const (
	eventSubmissionCreated = "SUBMISSION_CREATED"
	eventSubmissionGraded  = "SUBMISSION_GRADED"
)

type SubmitInput struct {
	AssignmentID int     `json:"-"`
	TeamID       int     `json:"-"`
	Link         string  `json:"submission_link" validate:"required,url,max=2048"`
	Notes        *string `json:"notes" validate:"omitempty,max=5000"`
}

type GradeInput struct {
	SubmissionID int      `json:"submission_id" validate:"required,gte=1"`
	Grade        *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback     *string  `json:"feedback" validate:"omitempty,max=5000"`
}

// Коды результата для элемента массовой оценки.
const (
	BulkResultGraded   = "graded"
	BulkResultInvalid  = "validation_error"
	BulkResultNotFound = "not_found"
)

type BulkGradeResult struct {
	SubmissionID int                `json:"submission_id"`
	Result       string             `json:"result"`
	Submission   *models.Submission `json:"submission,omitempty"`
	Errors       map[string]string  `json:"errors,omitempty"`
}

// SheetExporter выгружает строки во внешнюю таблицу и возвращает диапазон записи.
type SheetExporter interface {
	ExportRows(ctx context.Context, title string, rows []models.ExportRow) (string, error)
}

type SubmissionExport struct {
	Assignment *models.Assignment `json:"assignment"`
	Rows       []models.ExportRow `json:"rows"`
}

type SubmissionService interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Submission, error)
	Grade(ctx context.Context, input GradeInput, graderID int) (*models.Submission, error)
	BulkGrade(ctx context.Context, items []GradeInput, graderID int) ([]BulkGradeResult, error)
	ListByAssignment(ctx context.Context, assignmentID int) ([]*models.Submission, error)
	Export(ctx context.Context, assignmentID int) (*SubmissionExport, error)
	ExportToSheet(ctx context.Context, assignmentID int) (string, error)
}

type submissionService struct {
	tx             repositories.TxManager
	submissionRepo repositories.SubmissionRepository
	assignmentRepo repositories.AssignmentRepository
	gate           StageGate
	sheets         SheetExporter
	validator      *Validator
	publisher      live.Publisher
	logger         *slog.Logger
	now            Clock
}

// NewSubmissionService: sheets может быть nil, тогда выгрузка в таблицу отключена.
func NewSubmissionService(
	tx repositories.TxManager,
	submissionRepo repositories.SubmissionRepository,
	assignmentRepo repositories.AssignmentRepository,
	gate StageGate,
	sheets SheetExporter,
	validator *Validator,
	publisher live.Publisher,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		tx:             tx,
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		gate:           gate,
		sheets:         sheets,
		validator:      validator,
		publisher:      publisher,
		logger:         logger,
		now:            systemClock,
	}
}

// Submit checks, in order: stage access, the assignment being open, and that
// the team has not submitted yet. Each failure has its own error.
func (s *submissionService) Submit(ctx context.Context, input SubmitInput) (*models.Submission, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, input.AssignmentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	decision, err := s.gate.CanAccessStage(ctx, input.TeamID, assignment.StageID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decision.Err()
	}

	now := s.now()
	if !assignment.IsOpen(now) {
		return nil, ErrAssignmentClosed
	}

	_, err = s.submissionRepo.GetByAssignmentAndTeam(ctx, assignment.ID, input.TeamID)
	if err == nil {
		return nil, ErrAlreadySubmitted
	}
	if !errors.Is(err, repositories.ErrSubmissionNotFound) {
		return nil, err
	}

	sub := &models.Submission{
		AssignmentID:   assignment.ID,
		TeamID:         input.TeamID,
		SubmissionLink: input.Link,
		Notes:          input.Notes,
		Status:         models.SubmissionPending,
		SubmittedAt:    now,
	}
	// Параллельная отправка упрётся в уникальный ключ и вернёт ErrAlreadySubmitted.
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, handleRepositoryError(err)
	}
	sub.IsLate = sub.IsLateFor(assignment.Deadline)

	s.logger.Info("submission created",
		slog.Int("submission_id", sub.ID),
		slog.Int("assignment_id", assignment.ID),
		slog.Int("team_id", input.TeamID),
	)
	s.publish(live.AdminRoom, eventSubmissionCreated, sub)
	return sub, nil
}

func (s *submissionService) Grade(ctx context.Context, input GradeInput, graderID int) (*models.Submission, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	sub, err := s.submissionRepo.ApplyGrade(ctx, nil, input.SubmissionID, s.gradeUpdate(input, graderID))
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := s.markLate(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("submission graded", slog.Int("submission_id", sub.ID), slog.Int("grader_id", graderID))
	s.publish(live.TeamRoom(sub.TeamID), eventSubmissionGraded, sub)
	return sub, nil
}

// BulkGrade validates every item first, then applies the valid ones in a single
// transaction. Invalid and missing submissions are reported per item. A storage
// failure rolls back the whole batch and is returned as an error.
func (s *submissionService) BulkGrade(ctx context.Context, items []GradeInput, graderID int) ([]BulkGradeResult, error) {
	results := make([]BulkGradeResult, len(items))
	valid := make([]int, 0, len(items))

	for i, item := range items {
		results[i].SubmissionID = item.SubmissionID
		if err := s.validator.Struct(item); err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			results[i].Result = BulkResultInvalid
			results[i].Errors = verr.Fields
			continue
		}
		valid = append(valid, i)
	}
	if len(valid) == 0 {
		return results, nil
	}

	graded := make(map[int]*models.Submission, len(valid))
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, i := range valid {
			sub, err := s.submissionRepo.ApplyGrade(ctx, exec, items[i].SubmissionID, s.gradeUpdate(items[i], graderID))
			if errors.Is(err, repositories.ErrSubmissionNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("grade submission %d: %w", items[i].SubmissionID, err)
			}
			graded[i] = sub
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, i := range valid {
		sub, ok := graded[i]
		if !ok {
			results[i].Result = BulkResultNotFound
			continue
		}
		if err := s.markLate(ctx, sub); err != nil {
			return nil, err
		}
		results[i].Result = BulkResultGraded
		results[i].Submission = sub
		s.publish(live.TeamRoom(sub.TeamID), eventSubmissionGraded, sub)
	}

	s.logger.Info("bulk grade applied",
		slog.Int("requested", len(items)),
		slog.Int("graded", len(graded)),
		slog.Int("grader_id", graderID),
	)
	return results, nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID int) ([]*models.Submission, error) {
	assignment, subs, err := s.loadForAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		sub.IsLate = sub.IsLateFor(assignment.Deadline)
	}
	return subs, nil
}

func (s *submissionService) Export(ctx context.Context, assignmentID int) (*SubmissionExport, error) {
	assignment, subs, err := s.loadForAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	rows := make([]models.ExportRow, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, models.NewExportRow(sub, assignment.Deadline))
	}
	return &SubmissionExport{Assignment: assignment, Rows: rows}, nil
}

func (s *submissionService) ExportToSheet(ctx context.Context, assignmentID int) (string, error) {
	if s.sheets == nil {
		return "", ErrExportDisabled
	}
	export, err := s.Export(ctx, assignmentID)
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("assignment_%d", export.Assignment.ID)
	updated, err := s.sheets.ExportRows(ctx, title, export.Rows)
	if err != nil {
		return "", fmt.Errorf("failed to export assignment %d to spreadsheet: %w", assignmentID, err)
	}
	return updated, nil
}

func (s *submissionService) loadForAssignment(ctx context.Context, assignmentID int) (*models.Assignment, []*models.Submission, error) {
	var (
		assignment *models.Assignment
		subs       []*models.Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assignment, err = s.assignmentRepo.GetByID(gctx, assignmentID)
		return err
	})
	g.Go(func() error {
		var err error
		subs, err = s.submissionRepo.ListByAssignment(gctx, assignmentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	return assignment, subs, nil
}

func (s *submissionService) gradeUpdate(input GradeInput, graderID int) repositories.GradeUpdate {
	return repositories.GradeUpdate{
		Grade:    *input.Grade,
		Feedback: input.Feedback,
		GraderID: graderID,
		GradedAt: s.now(),
	}
}

func (s *submissionService) markLate(ctx context.Context, sub *models.Submission) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, sub.AssignmentID)
	if err != nil {
		return handleRepositoryError(err)
	}
	sub.IsLate = sub.IsLateFor(assignment.Deadline)
	return nil
}

func (s *submissionService) publish(room, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(room, live.Event{Type: eventType, Payload: payload})
}
