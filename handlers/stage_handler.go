package handlers

import (
	"net/http"

	"github.com/Dosada05/competition-system/services"
)

type StageHandler struct {
	stageService services.StageService
}

func NewStageHandler(stageService services.StageService) *StageHandler {
	return &StageHandler{stageService: stageService}
}

// ListStages godoc
// @Summary Список этапов по порядку
// @Tags stages
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stages [get]
func (h *StageHandler) ListStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.stageService.ListStages(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stages": stages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) GetStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stage, err := h.stageService.GetStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) CreateStage(w http.ResponseWriter, r *http.Request) {
	var input services.StageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stage, err := h.stageService.CreateStage(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StageHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.StageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stage, err := h.stageService.UpdateStage(r.Context(), stageID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
