package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/weekly-contest/docs" // swagger document
	"github.com/Dosada05/weekly-contest/handlers"
	"github.com/Dosada05/weekly-contest/middleware"
	"github.com/Dosada05/weekly-contest/models"
	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Participants *handlers.ParticipantHandler
	Transition   *handlers.TransitionHandler
	Stats        *handlers.StatsHandler
	Contest      *handlers.ContestHandler
	WebSocket    *handlers.WebSocketHandler
	Health       http.Handler
	Metrics      http.Handler
}

func SetupRoutes(router chi.Router, h Handlers, auth *middleware.Authenticator, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if h.Health != nil {
		router.Method(http.MethodGet, "/healthz", h.Health)
	} else {
		router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}
	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics)
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Публичная часть конкурса
	router.Route("/contest", func(r chi.Router) {
		r.Get("/weeks", h.Contest.Weeks)
		r.Get("/participants/{participantID}/rating-stats", h.Contest.RatingStats)
		r.Post("/participants/photos", h.Contest.Photos)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Put("/participants/{participantID}/rating", h.Contest.Rate)
			r.Put("/participants/{participantID}/next-week-vote", h.Contest.VoteNextWeek)
		})
	})

	router.Get("/ws/"+realtime.RoomContest, h.WebSocket.ServeRoom(realtime.RoomContest))

	// Админ-панель: только admin и moderator
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.RequireRole(models.RoleAdmin, models.RoleModerator))

		r.Get("/ws/"+realtime.RoomAdmin, h.WebSocket.ServeRoom(realtime.RoomAdmin))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/rejection-reasons", h.Participants.RejectionReasons)

			r.Route("/participants", func(r chi.Router) {
				r.Get("/", h.Participants.ListTab)
				r.Get("/weekly", h.Participants.Weekly)
				r.With(chiMiddleware.Timeout(2*time.Minute)).Get("/export", h.Participants.Export)

				r.Route("/{participantID}", func(r chi.Router) {
					r.Get("/", h.Participants.Get)
					r.Delete("/", h.Participants.Delete)
					r.Post("/status", h.Participants.UpdateStatus)
					r.Post("/reject", h.Participants.Reject)
					r.Post("/approve", h.Participants.Approve)
					r.Post("/restore", h.Participants.Restore)
					r.Get("/votes", h.Participants.Votes)
					r.Post("/photos/{slot}", h.Participants.UploadPhoto)
				})
			})

			r.Route("/transition", func(r chi.Router) {
				r.Get("/monday", h.Transition.CurrentMonday)
				r.Get("/preview", h.Transition.Preview)
				r.Post("/", h.Transition.Run)
			})

			r.Get("/stats", h.Stats.Dashboard)
			r.Get("/users", h.Stats.Users)
		})
	})
}
