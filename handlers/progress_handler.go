package handlers

import (
	"net/http"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

type ProgressHandler struct {
	progressService services.ProgressService
	gate            services.StageGate
	teamService     services.TeamService
}

func NewProgressHandler(progressService services.ProgressService, gate services.StageGate, teamService services.TeamService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		gate:            gate,
		teamService:     teamService,
	}
}

// GetProgress godoc
// @Summary Запись прогресса команды по этапу
// @Description Возвращает {"progress": null}, если запись ещё не создана.
// @Tags progress
// @Produce json
// @Param teamID path int true "ID команды"
// @Param stageID path int true "ID этапа"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/{teamID}/progress/{stageID} [get]
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := authorizeTeam(r, h.teamService, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	entry, err := h.progressService.GetProgress(r.Context(), teamID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CheckAccess godoc
// @Summary Решение Stage Gate для команды
// @Tags progress
// @Produce json
// @Param teamID path int true "ID команды"
// @Param stageID path int true "ID этапа"
// @Success 200 {object} services.AccessDecision
// @Security BearerAuth
// @Router /teams/{teamID}/stages/{stageID}/access [get]
func (h *ProgressHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := authorizeTeam(r, h.teamService, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	decision, err := h.gate.CanAccessStage(r.Context(), teamID, stageID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, decision, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProgressHandler) ListMyProgress(w http.ResponseWriter, r *http.Request) {
	teamID, err := currentTeamID(r, h.teamService)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	entries, err := h.progressService.ListTeamProgress(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitStage godoc
// @Summary Отметить этап как сданный (in_progress -> submitted)
// @Tags progress
// @Produce json
// @Param stageID path int true "ID этапа"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /me/progress/{stageID}/submit [post]
func (h *ProgressHandler) SubmitStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := currentTeamID(r, h.teamService)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	entry, err := h.progressService.MarkSubmitted(r.Context(), teamID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProgressHandler) ListStageProgress(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.ProgressStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.ProgressStatus(raw)
		status = &st
	}

	entries, err := h.progressService.ListStageProgress(r.Context(), stageID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type createProgressRequest struct {
	TeamID  int `json:"team_id"`
	StageID int `json:"stage_id"`
}

func (h *ProgressHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createProgressRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	fields := map[string]string{}
	if req.TeamID <= 0 {
		fields["team_id"] = "must be a positive id"
	}
	if req.StageID <= 0 {
		fields["stage_id"] = "must be a positive id"
	}
	if len(fields) > 0 {
		failedValidationResponse(w, r, fields)
		return
	}

	entry, err := h.progressService.CreateEntry(r.Context(), req.TeamID, req.StageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"progress": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveProgress godoc
// @Summary Одобрить запись прогресса и открыть следующий этап
// @Tags admin
// @Produce json
// @Param progressID path int true "ID записи"
// @Success 200 {object} services.ApproveResult
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/progress/{progressID}/approve [post]
func (h *ProgressHandler) ApproveProgress(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "progressID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.progressService.Approve(r.Context(), entryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectProgress godoc
// @Summary Отклонить запись прогресса
// @Tags admin
// @Produce json
// @Param progressID path int true "ID записи"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/progress/{progressID}/reject [post]
func (h *ProgressHandler) RejectProgress(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "progressID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.progressService.Reject(r.Context(), entryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
