package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/plantalytics/plantalytics-backend/internal/server/services"
	"github.com/plantalytics/plantalytics-backend/pkg/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the dependencies the HTTP layer dispatches to
type Services struct {
	Auth      *services.AuthService
	Admin     *services.AdminService
	Passwords *services.PasswordService
	Accounts  *services.AccountService
	Env       *services.EnvService
}

func NewRouter(svc Services) http.Handler {
	authHandler := NewAuthHandler(svc.Auth)
	accountHandler := NewAccountHandler(svc.Passwords, svc.Accounts)
	adminHandler := NewAdminHandler(svc.Admin)
	envHandler := NewEnvHandler(svc.Env)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CORSMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/health_check", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, models.HealthResponse{IsAlive: true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	r.Post("/password/change", accountHandler.ChangePassword)
	r.Post("/password/reset", accountHandler.ResetPassword)
	r.Post("/email_change", accountHandler.ChangeEmail)

	r.Route("/admin", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/", adminHandler.GetUser)
			r.Post("/list", adminHandler.ListUsers)
			r.Post("/new", adminHandler.NewUser)
			r.Post("/edit", adminHandler.EditUser)
			r.Post("/subscription", adminHandler.UpdateSubscription)
			r.Post("/disable", adminHandler.DisableUser)
		})
		r.Route("/vineyard", func(r chi.Router) {
			r.Post("/", adminHandler.GetVineyard)
			r.Post("/list", adminHandler.ListVineyards)
			r.Post("/new", adminHandler.NewVineyard)
			r.Post("/edit", adminHandler.EditVineyard)
			r.Post("/disable", adminHandler.DisableVineyard)
		})
		r.Post("/node/new", adminHandler.NewNode)
	})

	r.Post("/vineyard", envHandler.Vineyard)
	r.Post("/env_data", envHandler.EnvData)
	r.Post("/hub_data", envHandler.HubData)
	r.Put("/hub_data", envHandler.HubData)

	return r
}
