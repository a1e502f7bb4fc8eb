package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

// stubTeams отдаёт команду по лидеру; остальные методы интерфейса не используются.
type stubTeams struct {
	services.TeamService
	byLeader map[int]*models.Team
}

func (s *stubTeams) GetTeamByLeader(_ context.Context, leaderID int) (*models.Team, error) {
	if t, ok := s.byLeader[leaderID]; ok {
		return t, nil
	}
	return nil, services.ErrTeamNotFound
}

func teamsWith(leaderID, teamID int) *stubTeams {
	return &stubTeams{byLeader: map[int]*models.Team{leaderID: {ID: teamID, LeaderID: leaderID}}}
}

type requestOpt func(*http.Request) *http.Request

func asUser(userID int, role models.UserRole) requestOpt {
	return func(r *http.Request) *http.Request {
		claims := jwt.MapClaims{"user_id": float64(userID), "role": string(role)}
		return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
	}
}

func withParams(kv ...string) requestOpt {
	return func(r *http.Request) *http.Request {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(kv); i += 2 {
			rctx.URLParams.Add(kv[i], kv[i+1])
		}
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
}

func newRequest(t *testing.T, method, target string, body interface{}, opts ...requestOpt) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		r = opt(r)
	}
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
