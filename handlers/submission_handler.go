package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/competition-system/export"
	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/services"
)

type SubmissionHandler struct {
	submissionService services.SubmissionService
	teamService       services.TeamService
}

func NewSubmissionHandler(submissionService services.SubmissionService, teamService services.TeamService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		teamService:       teamService,
	}
}

// Submit godoc
// @Summary Сдать задание от имени команды
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignmentID path int true "ID задания"
// @Param input body services.SubmitInput true "Ссылка на решение"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{} "access_denied"
// @Failure 409 {object} map[string]interface{} "assignment_closed | already_submitted"
// @Security BearerAuth
// @Router /assignments/{assignmentID}/submissions [post]
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := getIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := currentTeamID(r, h.teamService)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input services.SubmitInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.AssignmentID = assignmentID
	input.TeamID = teamID

	submission, err := h.submissionService.Submit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"submission": submission}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type gradeRequest struct {
	Grade    *float64 `json:"grade"`
	Feedback *string  `json:"feedback"`
}

// Grade godoc
// @Summary Оценить сданную работу
// @Tags admin
// @Accept json
// @Produce json
// @Param submissionID path int true "ID работы"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/submissions/{submissionID}/grade [post]
func (h *SubmissionHandler) Grade(w http.ResponseWriter, r *http.Request) {
	submissionID, err := getIDFromURL(r, "submissionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	graderID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var req gradeRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := services.GradeInput{SubmissionID: submissionID, Grade: req.Grade, Feedback: req.Feedback}
	submission, err := h.submissionService.Grade(r.Context(), input, graderID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"submission": submission}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type bulkGradeRequest struct {
	Items []services.GradeInput `json:"items"`
}

// BulkGrade godoc
// @Summary Массовая оценка
// @Description Невалидные элементы возвращаются с result=validation_error, остальные применяются в одной транзакции.
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/submissions/grade [post]
func (h *SubmissionHandler) BulkGrade(w http.ResponseWriter, r *http.Request) {
	graderID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var req bulkGradeRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(req.Items) == 0 {
		failedValidationResponse(w, r, map[string]string{"items": "must contain at least one item"})
		return
	}

	results, err := h.submissionService.BulkGrade(r.Context(), req.Items, graderID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubmissionHandler) ListByAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := getIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submissions, err := h.submissionService.ListByAssignment(r.Context(), assignmentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"submissions": submissions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportCSV godoc
// @Summary Выгрузка работ по заданию в CSV
// @Tags admin
// @Produce text/csv
// @Param assignmentID path int true "ID задания"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /admin/assignments/{assignmentID}/submissions/export [get]
func (h *SubmissionHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := getIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.submissionService.Export(r.Context(), assignmentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"assignment_%d_submissions.csv\"", assignmentID))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, result.Rows); err != nil {
		// заголовки уже отправлены, остаётся только залогировать
		requestLogger(r).Error("failed to stream csv export", "assignment_id", assignmentID, "error", err)
	}
}

func (h *SubmissionHandler) ExportSheet(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := getIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updatedRange, err := h.submissionService.ExportToSheet(r.Context(), assignmentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"updated_range": updatedRange}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
