package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"grade": "must be at most 100"}}, http.StatusUnprocessableEntity, codeValidation},
		{"stage not found", fmt.Errorf("load: %w", services.ErrStageNotFound), http.StatusNotFound, codeNotFound},
		{"access denied", fmt.Errorf("%w: stage not reached", services.ErrAccessDenied), http.StatusForbidden, codeAccessDenied},
		{"stage not reached", services.ErrStageNotReached, http.StatusForbidden, codeStageNotReached},
		{"closed", services.ErrAssignmentClosed, http.StatusConflict, codeAssignmentClosed},
		{"already submitted", services.ErrAlreadySubmitted, http.StatusConflict, codeAlreadySubmitted},
		{"transition", services.ErrInvalidProgressTransition, http.StatusConflict, codeInvalidTransition},
		{"locked", services.ErrStageLocked, http.StatusConflict, codeStageLocked},
		{"team not approved", services.ErrTeamNotApproved, http.StatusConflict, codeTeamNotApproved},
		{"conflict", services.ErrProgressConflict, http.StatusConflict, codeConflict},
		{"credentials", services.ErrAuthInvalidCredentials, http.StatusUnauthorized, ""},
		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden, ""},
		{"file type", services.ErrUnsupportedFileType, http.StatusUnsupportedMediaType, ""},
		{"export disabled", services.ErrExportDisabled, http.StatusServiceUnavailable, ""},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(rec, r, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			if tc.code != "" {
				assert.Equal(t, tc.code, body["code"])
			} else {
				assert.NotContains(t, body, "code")
			}
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection refused")
			}
		})
	}
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	r := newRequest(t, http.MethodPost, "/", `{"team_id": 1, "extra": true}`)

	var dst createProgressRequest
	err := readJSON(rec, r, &dst)

	assert.ErrorContains(t, err, "unknown key")
}

func TestGetIDFromURL(t *testing.T) {
	r := newRequest(t, http.MethodGet, "/", nil, withParams("stageID", "7", "teamID", "abc", "zero", "0"))

	id, err := getIDFromURL(r, "stageID")
	assert.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = getIDFromURL(r, "teamID")
	assert.Error(t, err)
	_, err = getIDFromURL(r, "zero")
	assert.Error(t, err)
	_, err = getIDFromURL(r, "missing")
	assert.Error(t, err)
}

func TestAuthorizeTeam(t *testing.T) {
	teams := teamsWith(10, 3)

	admin := newRequest(t, http.MethodGet, "/", nil, asUser(1, models.RoleAdmin))
	assert.NoError(t, authorizeTeam(admin, teams, 99))

	leader := newRequest(t, http.MethodGet, "/", nil, asUser(10, models.RoleParticipant))
	assert.NoError(t, authorizeTeam(leader, teams, 3))
	assert.ErrorIs(t, authorizeTeam(leader, teams, 4), services.ErrForbiddenOperation)

	stranger := newRequest(t, http.MethodGet, "/", nil, asUser(11, models.RoleParticipant))
	assert.ErrorIs(t, authorizeTeam(stranger, teams, 3), services.ErrForbiddenOperation)

	anonymous := newRequest(t, http.MethodGet, "/", nil)
	assert.ErrorIs(t, authorizeTeam(anonymous, teams, 3), services.ErrForbiddenOperation)
}
