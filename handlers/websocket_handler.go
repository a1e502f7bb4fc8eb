package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/competition-system/live"
	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

type WebSocketHandler struct {
	hub         *live.Hub
	teamService services.TeamService
	upgrader    websocket.Upgrader
}

func NewWebSocketHandler(hub *live.Hub, teamService services.TeamService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		teamService: teamService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker пропускает запросы без Origin (не браузер) и origin из списка CORS.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWs подключает клиента к живой ленте. Администратор попадает в общую комнату,
// участник в комнату своей команды.
// Токен можно передать в query-параметре token, браузер не умеет ставить заголовок.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomFor(r)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		requestLogger(r).Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	if client := h.hub.Attach(conn, room); client == nil {
		requestLogger(r).Warn("websocket hub is stopped", slog.String("room", room))
	}
}

func (h *WebSocketHandler) roomFor(r *http.Request) (string, error) {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		return "", services.ErrForbiddenOperation
	}
	if role == models.RoleAdmin {
		return live.AdminRoom, nil
	}
	teamID, err := currentTeamID(r, h.teamService)
	if err != nil {
		return "", err
	}
	return live.TeamRoom(teamID), nil
}
