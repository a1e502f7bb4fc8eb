package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/services"
)

const maxMaterialUploadBytes = 32 << 20

type MaterialHandler struct {
	materialService services.MaterialService
	teamService     services.TeamService
}

func NewMaterialHandler(materialService services.MaterialService, teamService services.TeamService) *MaterialHandler {
	return &MaterialHandler{
		materialService: materialService,
		teamService:     teamService,
	}
}

func (h *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.MaterialInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	material, err := h.materialService.CreateMaterial(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"material": material}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadFile godoc
// @Summary Загрузить файл материала (R2)
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param materialID path int true "ID материала"
// @Param file formData file true "Файл"
// @Success 200 {object} map[string]interface{}
// @Failure 415 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/materials/{materialID}/file [post]
func (h *MaterialHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	materialID, err := getIDFromURL(r, "materialID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMaterialUploadBytes)
	if err := r.ParseMultipartForm(maxMaterialUploadBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for file"))
		return
	}

	material, err := h.materialService.UploadFile(r.Context(), materialID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"material": material}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MaterialHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	materialID, err := getIDFromURL(r, "materialID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.materialService.DeleteMaterial(r.Context(), materialID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MaterialHandler) ListForStage(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	materials, err := h.materialService.ListForStage(r.Context(), stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"materials": materials}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyMaterials godoc
// @Summary Материалы этапа, доступного команде
// @Tags materials
// @Produce json
// @Param stageID path int true "ID этапа"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Security BearerAuth
// @Router /me/stages/{stageID}/materials [get]
func (h *MaterialHandler) ListMyMaterials(w http.ResponseWriter, r *http.Request) {
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

	materials, err := h.materialService.ListForTeam(r.Context(), teamID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"materials": materials}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
