package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/services"
)

type AssignmentHandler struct {
	assignmentService services.AssignmentService
	teamService       services.TeamService
}

func NewAssignmentHandler(assignmentService services.AssignmentService, teamService services.TeamService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		teamService:       teamService,
	}
}

// ListAssignments godoc
// @Summary Задания этапа (админ)
// @Tags admin
// @Produce json
// @Param stageID path int true "ID этапа"
// @Param active query bool false "Только активные"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/stages/{stageID}/assignments [get]
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		activeOnly, err = strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid active flag: %q", raw))
			return
		}
	}

	views, err := h.assignmentService.ListAssignments(r.Context(), stageID, activeOnly)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"assignments": views}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AssignmentHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := getIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	assignment, err := h.assignmentService.GetAssignment(r.Context(), assignmentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"assignment": assignment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.AssignmentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"assignment": assignment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AssignmentHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := getIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AssignmentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	assignment, err := h.assignmentService.UpdateAssignment(r.Context(), assignmentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"assignment": assignment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *AssignmentHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := getIDFromURL(r, "assignmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req setActiveRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.IsActive == nil {
		failedValidationResponse(w, r, map[string]string{"is_active": "is required"})
		return
	}

	assignment, err := h.assignmentService.SetActive(r.Context(), assignmentID, *req.IsActive)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"assignment": assignment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyAssignments godoc
// @Summary Задания гейтового этапа для команды текущего пользователя
// @Tags assignments
// @Produce json
// @Success 200 {object} services.TeamAssignments
// @Failure 403 {object} map[string]interface{}
// @Security BearerAuth
// @Router /me/assignments [get]
func (h *AssignmentHandler) ListMyAssignments(w http.ResponseWriter, r *http.Request) {
	teamID, err := currentTeamID(r, h.teamService)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	result, err := h.assignmentService.ListForTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
