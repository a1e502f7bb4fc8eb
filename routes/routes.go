package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/competition-system/handlers"
	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/models"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Stages     *handlers.StageHandler
	Teams      *handlers.TeamHandler
	Progress   *handlers.ProgressHandler
	Assignment *handlers.AssignmentHandler
	Submission *handlers.SubmissionHandler
	Materials  *handlers.MaterialHandler
	Sweeper    *handlers.SweeperHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret string, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.With(authenticate).Get("/me", h.Auth.Me)
	})

	router.Get("/stages", h.Stages.ListStages)
	router.Get("/stages/{stageID}", h.Stages.GetStage)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		// websocket держит соединение дольше таймаута
		r.Get("/ws", h.WebSocket.ServeWs)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Route("/me", func(r chi.Router) {
				r.Post("/team", h.Teams.RegisterTeam)
				r.Get("/team", h.Teams.GetMyTeam)
				r.Get("/progress", h.Progress.ListMyProgress)
				r.Post("/progress/{stageID}/submit", h.Progress.SubmitStage)
				r.Get("/assignments", h.Assignment.ListMyAssignments)
				r.Get("/stages/{stageID}/materials", h.Materials.ListMyMaterials)
			})

			r.Get("/teams/{teamID}/progress/{stageID}", h.Progress.GetProgress)
			r.Get("/teams/{teamID}/stages/{stageID}/access", h.Progress.CheckAccess)
			r.Post("/assignments/{assignmentID}/submissions", h.Submission.Submit)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Post("/stages", h.Stages.CreateStage)
				r.Put("/stages/{stageID}", h.Stages.UpdateStage)
				r.Get("/stages/{stageID}/progress", h.Progress.ListStageProgress)
				r.Get("/stages/{stageID}/assignments", h.Assignment.ListAssignments)
				r.Get("/stages/{stageID}/materials", h.Materials.ListForStage)

				r.Get("/teams", h.Teams.ListTeams)
				r.Get("/teams/{teamID}", h.Teams.GetTeam)
				r.Patch("/teams/{teamID}/status", h.Teams.UpdateTeamStatus)

				r.Post("/progress", h.Progress.CreateEntry)
				r.Post("/progress/{progressID}/approve", h.Progress.ApproveProgress)
				r.Post("/progress/{progressID}/reject", h.Progress.RejectProgress)

				r.Post("/assignments", h.Assignment.CreateAssignment)
				r.Get("/assignments/{assignmentID}", h.Assignment.GetAssignment)
				r.Put("/assignments/{assignmentID}", h.Assignment.UpdateAssignment)
				r.Patch("/assignments/{assignmentID}/active", h.Assignment.SetActive)
				r.Get("/assignments/{assignmentID}/submissions", h.Submission.ListByAssignment)
				r.Get("/assignments/{assignmentID}/submissions/export", h.Submission.ExportCSV)
				r.Post("/assignments/{assignmentID}/submissions/export/sheets", h.Submission.ExportSheet)

				r.Post("/submissions/grade", h.Submission.BulkGrade)
				r.Post("/submissions/{submissionID}/grade", h.Submission.Grade)

				r.Post("/materials", h.Materials.CreateMaterial)
				r.Post("/materials/{materialID}/file", h.Materials.UploadFile)
				r.Delete("/materials/{materialID}", h.Materials.DeleteMaterial)

				r.Post("/sweeper/activate", h.Sweeper.Activate)
				r.Post("/sweeper/expire", h.Sweeper.Expire)
				r.Post("/sweeper/run", h.Sweeper.Run)
			})
		})
	})
}
