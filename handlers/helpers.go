package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

type jsonResponse map[string]interface{}

// Коды ошибок, по которым клиент выбирает сообщение пользователю.
const (
	codeValidation        = "validation_failed"
	codeAccessDenied      = "access_denied"
	codeStageNotReached   = "stage_not_reached"
	codeAssignmentClosed  = "assignment_closed"
	codeAlreadySubmitted  = "already_submitted"
	codeInvalidTransition = "invalid_transition"
	codeStageLocked       = "stage_locked"
	codeTeamNotApproved   = "team_not_approved"
	codeConflict          = "conflict"
	codeNotFound          = "not_found"
)

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func requestLogger(r *http.Request) *slog.Logger {
	return slog.Default().With(
		slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	writeErrorEnvelope(w, r, status, jsonResponse{"error": message})
}

func codedErrorResponse(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	writeErrorEnvelope(w, r, status, jsonResponse{"error": err.Error(), "code": code})
}

func writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, env jsonResponse) {
	if err := writeJSON(w, status, env, nil); err != nil {
		requestLogger(r).Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r).Error("internal server error", slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeErrorEnvelope(w, r, http.StatusUnprocessableEntity, jsonResponse{"error": fields, "code": codeValidation})
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	codedErrorResponse(w, r, http.StatusNotFound, codeNotFound, err)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
// Бизнес-отказы получают код в поле "code"; неизвестные ошибки отдаются как 500 без деталей.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError

	switch {
	case errors.As(err, &verr):
		failedValidationResponse(w, r, verr.Fields)
	case errors.Is(err, services.ErrValidationFailed):
		codedErrorResponse(w, r, http.StatusUnprocessableEntity, codeValidation, err)

	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrProgressNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrMaterialNotFound):
		notFoundResponse(w, r, err)

	// Отказы Stage Gate и правила сдачи
	case errors.Is(err, services.ErrAccessDenied):
		codedErrorResponse(w, r, http.StatusForbidden, codeAccessDenied, err)
	case errors.Is(err, services.ErrStageNotReached):
		codedErrorResponse(w, r, http.StatusForbidden, codeStageNotReached, err)
	case errors.Is(err, services.ErrAssignmentClosed):
		codedErrorResponse(w, r, http.StatusConflict, codeAssignmentClosed, err)
	case errors.Is(err, services.ErrAlreadySubmitted):
		codedErrorResponse(w, r, http.StatusConflict, codeAlreadySubmitted, err)

	case errors.Is(err, services.ErrInvalidProgressTransition),
		errors.Is(err, services.ErrTeamInvalidStatusTransition):
		codedErrorResponse(w, r, http.StatusConflict, codeInvalidTransition, err)
	case errors.Is(err, services.ErrStageLocked):
		codedErrorResponse(w, r, http.StatusConflict, codeStageLocked, err)
	case errors.Is(err, services.ErrTeamNotApproved):
		codedErrorResponse(w, r, http.StatusConflict, codeTeamNotApproved, err)

	// Конфликты уникальности
	case errors.Is(err, services.ErrStageSlugConflict),
		errors.Is(err, services.ErrStageSequenceConflict),
		errors.Is(err, services.ErrProgressConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrTeamAlreadyRegistered),
		errors.Is(err, services.ErrAuthEmailTaken):
		codedErrorResponse(w, r, http.StatusConflict, codeConflict, err)

	case errors.Is(err, services.ErrAuthInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation):
		forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrUnsupportedFileType):
		errorResponse(w, r, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, services.ErrUploadsDisabled),
		errors.Is(err, services.ErrExportDisabled):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}
	return id, nil
}

// currentTeamID возвращает команду, которую возглавляет текущий пользователь.
func currentTeamID(r *http.Request, teams services.TeamService) (int, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return 0, services.ErrForbiddenOperation
	}
	team, err := teams.GetTeamByLeader(r.Context(), userID)
	if err != nil {
		return 0, err
	}
	return team.ID, nil
}

// authorizeTeam пропускает администратора или лидера самой команды.
func authorizeTeam(r *http.Request, teams services.TeamService, teamID int) error {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		return services.ErrForbiddenOperation
	}
	if role == models.RoleAdmin {
		return nil
	}
	ownID, err := currentTeamID(r, teams)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			return services.ErrForbiddenOperation
		}
		return err
	}
	if ownID != teamID {
		return services.ErrForbiddenOperation
	}
	return nil
}
