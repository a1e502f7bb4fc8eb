package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

type stubSweeper struct {
	gotNow time.Time
	result services.SweepResult
	err    error
}

func (s *stubSweeper) SweepActivate(_ context.Context, now time.Time) (int64, error) {
	s.gotNow = now
	return 2, s.err
}

func (s *stubSweeper) SweepExpire(_ context.Context, now time.Time) (int64, error) {
	s.gotNow = now
	return 1, s.err
}

func (s *stubSweeper) Run(_ context.Context, now time.Time) (services.SweepResult, error) {
	s.gotNow = now
	s.result.RanAt = now
	return s.result, s.err
}

func TestSweeperActivateUsesClockWithoutBody(t *testing.T) {
	fixed := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	sw := &stubSweeper{}
	h := NewSweeperHandler(sw)
	h.now = func() time.Time { return fixed }
	rec := httptest.NewRecorder()

	h.Activate(rec, newRequest(t, http.MethodPost, "/", nil, asUser(1, models.RoleAdmin)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixed, sw.gotNow)
	assert.Equal(t, float64(2), decodeBody(t, rec)["activated"])
}

func TestSweeperExpireAcceptsExplicitNow(t *testing.T) {
	sw := &stubSweeper{}
	h := NewSweeperHandler(sw)
	rec := httptest.NewRecorder()
	r := newRequest(t, http.MethodPost, "/", `{"now": "2025-02-01T00:00:00Z"}`, asUser(1, models.RoleAdmin))

	h.Expire(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), sw.gotNow)
	assert.Equal(t, float64(1), decodeBody(t, rec)["expired"])
}

func TestSweeperRunFailure(t *testing.T) {
	h := NewSweeperHandler(&stubSweeper{err: errors.New("db down")})
	rec := httptest.NewRecorder()

	h.Run(rec, newRequest(t, http.MethodPost, "/", nil, asUser(1, models.RoleAdmin)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
