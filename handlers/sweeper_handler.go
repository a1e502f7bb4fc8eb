package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Dosada05/competition-system/services"
)

// StageSweeper - то, что нужно хендлеру от services.Sweeper.
type StageSweeper interface {
	SweepActivate(ctx context.Context, now time.Time) (int64, error)
	SweepExpire(ctx context.Context, now time.Time) (int64, error)
	Run(ctx context.Context, now time.Time) (services.SweepResult, error)
}

type SweeperHandler struct {
	sweeper StageSweeper
	now     func() time.Time
}

func NewSweeperHandler(sweeper StageSweeper) *SweeperHandler {
	return &SweeperHandler{
		sweeper: sweeper,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type sweepRequest struct {
	Now *time.Time `json:"now"`
}

// sweepTime берёт "now" из тела запроса, если оно передано; пустое тело допустимо.
func (h *SweeperHandler) sweepTime(w http.ResponseWriter, r *http.Request) (time.Time, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return h.now(), nil
	}
	var req sweepRequest
	if err := readJSON(w, r, &req); err != nil {
		return time.Time{}, err
	}
	if req.Now == nil {
		return h.now(), nil
	}
	return req.Now.UTC(), nil
}

// Activate godoc
// @Summary Перевести открытые этапы в in_progress
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/sweeper/activate [post]
func (h *SweeperHandler) Activate(w http.ResponseWriter, r *http.Request) {
	now, err := h.sweepTime(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	n, err := h.sweeper.SweepActivate(r.Context(), now)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"activated": n, "ran_at": now}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Expire godoc
// @Summary Отклонить несданные записи завершившихся этапов
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/sweeper/expire [post]
func (h *SweeperHandler) Expire(w http.ResponseWriter, r *http.Request) {
	now, err := h.sweepTime(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	n, err := h.sweeper.SweepExpire(r.Context(), now)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"expired": n, "ran_at": now}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SweeperHandler) Run(w http.ResponseWriter, r *http.Request) {
	now, err := h.sweepTime(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.sweeper.Run(r.Context(), now)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
