package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/competition-system/live"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
)

const eventProgressUpdated = "PROGRESS_UPDATED"

type ApproveResult struct {
	Entry            *models.ProgressEntry `json:"entry"`
	NextEntry        *models.ProgressEntry `json:"next_entry,omitempty"`
	CreatedNextEntry bool                  `json:"created_next_entry"`
}

type ProgressService interface {
	// GetProgress returns nil without error when the team has no entry for the stage.
	GetProgress(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error)
	ListTeamProgress(ctx context.Context, teamID int) ([]*models.ProgressEntry, error)
	ListStageProgress(ctx context.Context, stageID int, status *models.ProgressStatus) ([]*models.ProgressEntry, error)
	CreateEntry(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error)
	Approve(ctx context.Context, entryID int) (*ApproveResult, error)
	Reject(ctx context.Context, entryID int) (*models.ProgressEntry, error)
	MarkSubmitted(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error)
}

type progressService struct {
	tx           repositories.TxManager
	progressRepo repositories.ProgressRepository
	stageRepo    repositories.StageRepository
	teamRepo     repositories.TeamRepository
	publisher    live.Publisher
	logger       *slog.Logger
	now          Clock
}

func NewProgressService(
	tx repositories.TxManager,
	progressRepo repositories.ProgressRepository,
	stageRepo repositories.StageRepository,
	teamRepo repositories.TeamRepository,
	publisher live.Publisher,
	logger *slog.Logger,
) ProgressService {
	return &progressService{
		tx:           tx,
		progressRepo: progressRepo,
		stageRepo:    stageRepo,
		teamRepo:     teamRepo,
		publisher:    publisher,
		logger:       logger,
		now:          systemClock,
	}
}

func (s *progressService) GetProgress(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error) {
	entry, err := s.progressRepo.GetByTeamAndStage(ctx, teamID, stageID)
	if errors.Is(err, repositories.ErrProgressNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for team %d stage %d: %w", teamID, stageID, err)
	}
	return entry, nil
}

func (s *progressService) ListTeamProgress(ctx context.Context, teamID int) ([]*models.ProgressEntry, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, handleRepositoryError(err)
	}
	entries, err := s.progressRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for team %d: %w", teamID, err)
	}
	return entries, nil
}

func (s *progressService) ListStageProgress(ctx context.Context, stageID int, status *models.ProgressStatus) ([]*models.ProgressEntry, error) {
	if status != nil && !status.IsValid() {
		return nil, newFieldError("status", fmt.Sprintf("unknown progress status %q", *status))
	}
	if _, err := s.stageRepo.GetByID(ctx, stageID); err != nil {
		return nil, handleRepositoryError(err)
	}
	entries, err := s.progressRepo.ListByStage(ctx, stageID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for stage %d: %w", stageID, err)
	}
	return entries, nil
}

// CreateEntry explicitly opens a stage for a team. The team must be approved,
// and every stage after the first requires the preceding stage approved.
func (s *progressService) CreateEntry(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if team.Status != models.TeamStatusApproved {
		return nil, ErrTeamNotApproved
	}
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	prev, err := s.stageRepo.GetBySequence(ctx, nil, stage.Sequence-1)
	switch {
	case errors.Is(err, repositories.ErrStageNotFound):
		// Первый этап: предыдущего нет.
	case err != nil:
		return nil, err
	default:
		prevEntry, err := s.progressRepo.GetByTeamAndStage(ctx, teamID, prev.ID)
		if errors.Is(err, repositories.ErrProgressNotFound) {
			return nil, ErrStageNotReached
		}
		if err != nil {
			return nil, err
		}
		if prevEntry.Status != models.ProgressApproved {
			return nil, ErrStageNotReached
		}
	}

	entry := &models.ProgressEntry{TeamID: teamID, StageID: stageID, Status: models.ProgressNotStarted}
	if err := s.progressRepo.Create(ctx, nil, entry); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.notify(entry)
	return entry, nil
}

// Approve moves an in_progress or submitted entry to approved and, in the same
// transaction, opens the next stage (sequence + 1) for the team. Approving an
// already approved entry only re-checks the next-stage entry.
func (s *progressService) Approve(ctx context.Context, entryID int) (*ApproveResult, error) {
	result := &ApproveResult{}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		entry, err := s.progressRepo.GetForUpdate(ctx, exec, entryID)
		if err != nil {
			return handleRepositoryError(err)
		}

		if entry.Status != models.ProgressApproved {
			if entry.Status.IsTerminal() {
				return fmt.Errorf("%w: entry is already %q", ErrInvalidProgressTransition, entry.Status)
			}
			if !isValidProgressTransition(entry.Status, models.ProgressApproved) {
				return fmt.Errorf("%w: cannot approve entry in status %q", ErrInvalidProgressTransition, entry.Status)
			}
			now := s.now()
			ok, err := s.progressRepo.CompareAndSetStatus(ctx, exec, entryID, sourcesFor(models.ProgressApproved), models.ProgressApproved, now)
			if err != nil {
				return handleRepositoryError(err)
			}
			if !ok {
				// Другой писатель успел раньше: перечитываем и решаем по фактическому статусу.
				entry, err = s.progressRepo.GetForUpdate(ctx, exec, entryID)
				if err != nil {
					return handleRepositoryError(err)
				}
				if entry.Status != models.ProgressApproved {
					return fmt.Errorf("%w: entry moved to %q concurrently", ErrInvalidProgressTransition, entry.Status)
				}
			} else {
				entry.Status = models.ProgressApproved
				entry.ApprovedAt = &now
				entry.UpdatedAt = now
			}
		}
		result.Entry = entry

		stage, err := s.stageRepo.GetByID(ctx, entry.StageID)
		if err != nil {
			return handleRepositoryError(err)
		}
		next, err := s.stageRepo.GetBySequence(ctx, exec, stage.Sequence+1)
		if errors.Is(err, repositories.ErrStageNotFound) {
			return nil // последний этап пройден
		}
		if err != nil {
			return fmt.Errorf("failed to resolve stage after %d: %w", stage.Sequence, err)
		}

		nextEntry, created, err := s.progressRepo.CreateIfAbsent(ctx, exec, entry.TeamID, next.ID)
		if err != nil {
			return handleRepositoryError(err)
		}
		result.NextEntry = nextEntry
		result.CreatedNextEntry = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("progress approved",
		slog.Int("entry_id", result.Entry.ID),
		slog.Int("team_id", result.Entry.TeamID),
		slog.Bool("created_next_entry", result.CreatedNextEntry),
	)
	s.notify(result.Entry)
	if result.CreatedNextEntry {
		s.notify(result.NextEntry)
	}
	return result, nil
}

// Reject is a no-op for an already rejected entry and refused for an approved one.
func (s *progressService) Reject(ctx context.Context, entryID int) (*models.ProgressEntry, error) {
	var entry *models.ProgressEntry
	changed := false

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		entry, err = s.progressRepo.GetForUpdate(ctx, exec, entryID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if entry.Status == models.ProgressRejected {
			return nil
		}
		if entry.Status.IsTerminal() {
			return fmt.Errorf("%w: entry is already %q", ErrInvalidProgressTransition, entry.Status)
		}
		if !isValidProgressTransition(entry.Status, models.ProgressRejected) {
			return fmt.Errorf("%w: cannot reject entry in status %q", ErrInvalidProgressTransition, entry.Status)
		}

		now := s.now()
		ok, err := s.progressRepo.CompareAndSetStatus(ctx, exec, entryID, sourcesFor(models.ProgressRejected), models.ProgressRejected, now)
		if err != nil {
			return handleRepositoryError(err)
		}
		if !ok {
			entry, err = s.progressRepo.GetForUpdate(ctx, exec, entryID)
			if err != nil {
				return handleRepositoryError(err)
			}
			if entry.Status != models.ProgressRejected {
				return fmt.Errorf("%w: entry moved to %q concurrently", ErrInvalidProgressTransition, entry.Status)
			}
			return nil
		}
		entry.Status = models.ProgressRejected
		entry.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("progress rejected", slog.Int("entry_id", entry.ID), slog.Int("team_id", entry.TeamID))
		s.notify(entry)
	}
	return entry, nil
}

// MarkSubmitted is the team's own in_progress -> submitted step, allowed only
// while the stage window contains now.
func (s *progressService) MarkSubmitted(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error) {
	entry, err := s.progressRepo.GetByTeamAndStage(ctx, teamID, stageID)
	if err != nil {
		if errors.Is(err, repositories.ErrProgressNotFound) {
			return nil, ErrStageNotReached
		}
		return nil, err
	}
	if entry.Status == models.ProgressSubmitted {
		return entry, nil
	}
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	now := s.now()
	if !stage.WindowContains(now) {
		return nil, fmt.Errorf("%w: stage %q is closed", ErrInvalidProgressTransition, stage.Slug)
	}

	ok, err := s.progressRepo.CompareAndSetStatus(ctx, nil, entry.ID,
		[]models.ProgressStatus{models.ProgressInProgress}, models.ProgressSubmitted, now)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !ok {
		current, err := s.progressRepo.GetByID(ctx, entry.ID)
		if err != nil {
			return nil, handleRepositoryError(err)
		}
		if current.Status == models.ProgressSubmitted {
			return current, nil
		}
		return nil, fmt.Errorf("%w: cannot submit entry in status %q", ErrInvalidProgressTransition, current.Status)
	}

	entry.Status = models.ProgressSubmitted
	entry.SubmittedAt = &now
	entry.UpdatedAt = now
	s.notify(entry)
	return entry, nil
}

func (s *progressService) notify(entry *models.ProgressEntry) {
	if s.publisher == nil || entry == nil {
		return
	}
	s.publisher.Publish(live.TeamRoom(entry.TeamID), live.Event{Type: eventProgressUpdated, Payload: entry})
}
