package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Бизнес-правила этапов и прогресса
	ErrStageNotFound             = errors.New("stage not found")
	ErrStageLocked               = errors.New("stage cannot be changed once teams have progress in it")
	ErrStageSlugConflict         = errors.New("stage slug is already in use")
	ErrStageSequenceConflict     = errors.New("stage sequence is already in use")
	ErrProgressNotFound          = errors.New("progress entry not found")
	ErrProgressConflict          = errors.New("progress entry already exists for this team and stage")
	ErrInvalidProgressTransition = errors.New("invalid progress status transition")

	// Stage Gate и задания
	ErrAccessDenied       = errors.New("access denied")
	ErrStageNotReached    = errors.New("stage not reached")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentClosed   = errors.New("assignment is closed")
	ErrAlreadySubmitted   = errors.New("assignment already submitted by this team")
	ErrSubmissionNotFound = errors.New("submission not found")

	// Команды
	ErrTeamNotFound                = errors.New("team not found")
	ErrTeamNameConflict            = errors.New("team name is already in use")
	ErrTeamAlreadyRegistered       = errors.New("user has already registered a team")
	ErrTeamInvalidStatusTransition = errors.New("invalid team status transition")
	ErrTeamNotApproved             = errors.New("team registration is not approved")

	// Материалы и экспорт
	ErrMaterialNotFound    = errors.New("course material not found")
	ErrUploadsDisabled     = errors.New("file uploads are not configured")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExportDisabled      = errors.New("spreadsheet export is not configured")

	// Аутентификация и авторизация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
)

// ValidationError carries field-level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func newFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
