package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/bracket-manager/docs"
	"github.com/Dosada05/bracket-manager/handlers"
	"github.com/Dosada05/bracket-manager/middleware"
	"github.com/Dosada05/bracket-manager/web"
)

// Handlers собирает все HTTP обработчики приложения.
type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Views       *handlers.ViewsHandler
	WebSocket   *handlers.WebSocketHandler
	Admin       *handlers.AdminHandler
}

func SetupRoutes(router chi.Router, h Handlers, authenticator *middleware.Authenticator, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	router.Group(func(r chi.Router) {
		r.Use(authenticator.Authenticate)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/structure/tournaments", http.StatusFound)
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", h.Auth.Login)
				r.With(middleware.RequireAuthenticated).Get("/me", h.Auth.Me)
			})

			r.With(middleware.RequireAuthenticated).Post("/users", h.User.Create)

			r.Route("/tournaments", func(r chi.Router) {
				r.Get("/", h.Tournament.ListHandler)
				r.Post("/", h.Tournament.CreateHandler)
				r.Post("/preview", h.Tournament.PreviewHandler)
				r.Route("/{tournamentID}", func(r chi.Router) {
					r.Get("/", h.Tournament.GetByIDHandler)
					r.Put("/", h.Tournament.UpdateHandler)
					r.Delete("/", h.Tournament.DeleteHandler)
					r.Get("/viewer", h.Tournament.ViewerHandler)
				})
			})

			r.Route("/participants", func(r chi.Router) {
				r.Get("/", h.Participant.List)
				r.Post("/", h.Participant.Create)
				r.Post("/quick", h.Participant.QuickCreate)
				r.Route("/{participantID}", func(r chi.Router) {
					r.Get("/", h.Participant.GetByID)
					r.Put("/", h.Participant.Update)
					r.Delete("/", h.Participant.Delete)
				})
			})

			r.Get("/views/{viewID}", h.Views.Render)
		})

		r.Route("/admin/structure/tournaments", func(r chi.Router) {
			r.Get("/", h.Admin.Collection)
			r.Get("/add", h.Admin.AddForm)
			r.Post("/add", h.Admin.AddSubmit)
			r.Get("/participant-modal", h.Admin.ParticipantModal)
			r.Post("/participant-modal", h.Admin.ParticipantModalSubmit)
			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.Admin.Canonical)
				r.Get("/edit", h.Admin.EditForm)
				r.Post("/edit", h.Admin.EditSubmit)
				r.Get("/delete", h.Admin.DeleteForm)
				r.Post("/delete", h.Admin.DeleteSubmit)
			})
		})

		r.Get("/views/{viewID}", h.Admin.BracketViewPage)
		r.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

		r.Get("/user/login", h.Admin.LoginForm)
		r.Post("/user/login", h.Admin.LoginSubmit)
		r.Post("/user/logout", h.Admin.Logout)
	})
}
