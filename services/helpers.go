package services

import (
	"errors"
	"time"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
	"github.com/Dosada05/competition-system/storage"
)

// progressTransitions - допустимые переходы ProgressEntry. approved и rejected терминальные.
var progressTransitions = map[models.ProgressStatus][]models.ProgressStatus{
	models.ProgressNotStarted: {models.ProgressInProgress, models.ProgressRejected},
	models.ProgressInProgress: {models.ProgressSubmitted, models.ProgressApproved, models.ProgressRejected},
	models.ProgressSubmitted:  {models.ProgressApproved, models.ProgressRejected},
	models.ProgressApproved:   {},
	models.ProgressRejected:   {},
}

func isValidProgressTransition(current, next models.ProgressStatus) bool {
	for _, allowed := range progressTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// sourcesFor returns every status that may transition into target.
func sourcesFor(target models.ProgressStatus) []models.ProgressStatus {
	var from []models.ProgressStatus
	for _, s := range []models.ProgressStatus{
		models.ProgressNotStarted, models.ProgressInProgress, models.ProgressSubmitted,
		models.ProgressApproved, models.ProgressRejected,
	} {
		if isValidProgressTransition(s, target) {
			from = append(from, s)
		}
	}
	return from
}

func isValidTeamTransition(current, next models.TeamStatus) bool {
	switch current {
	case models.TeamStatusPending:
		return next == models.TeamStatusApproved || next == models.TeamStatusRejected
	case models.TeamStatusApproved:
		return next == models.TeamStatusRejected
	}
	return false
}

func validateStageWindow(startsAt, endsAt *time.Time) error {
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return newFieldError("ends_at", "ends_at must not be before starts_at")
	}
	return nil
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrStageNotFound):
		return ErrStageNotFound
	case errors.Is(err, repositories.ErrStageSlugConflict):
		return ErrStageSlugConflict
	case errors.Is(err, repositories.ErrStageSequenceConflict):
		return ErrStageSequenceConflict
	case errors.Is(err, repositories.ErrStageInUse):
		return ErrStageLocked
	case errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrProgressTeamInvalid),
		errors.Is(err, repositories.ErrSubmissionTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamLeaderConflict):
		return ErrTeamAlreadyRegistered
	case errors.Is(err, repositories.ErrProgressNotFound):
		return ErrProgressNotFound
	case errors.Is(err, repositories.ErrProgressConflict):
		return ErrProgressConflict
	case errors.Is(err, repositories.ErrProgressStageInvalid),
		errors.Is(err, repositories.ErrAssignmentStageInvalid),
		errors.Is(err, repositories.ErrMaterialStageInvalid):
		return ErrStageNotFound
	case errors.Is(err, repositories.ErrAssignmentNotFound),
		errors.Is(err, repositories.ErrSubmissionAssignmentInvalid):
		return ErrAssignmentNotFound
	case errors.Is(err, repositories.ErrSubmissionNotFound):
		return ErrSubmissionNotFound
	case errors.Is(err, repositories.ErrSubmissionConflict):
		return ErrAlreadySubmitted
	case errors.Is(err, repositories.ErrMaterialNotFound):
		return ErrMaterialNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrAuthEmailTaken
	}
	return err
}

func populateMaterialURL(m *models.CourseMaterial, uploader storage.FileUploader) {
	if m != nil && m.FileKey != nil && *m.FileKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*m.FileKey); url != "" {
			m.FileURL = &url
		}
	}
}
