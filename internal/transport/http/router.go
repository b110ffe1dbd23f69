package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/succession-vault/internal/config"
	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/transport/http/handler"
	appmiddleware "github.com/succession-vault/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background work of the rate limiters.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", appmiddleware.HeaderUserID, appmiddleware.HeaderUserRole},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Nominee routes are reachable without an account; identity attempts are unlimited in the core.
	nomineeRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(1), 5)
	registerRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(deps.Users)
	nomineeH := handler.NewNomineeHandler(deps.Nominees)
	assetH := handler.NewAssetHandler(deps.Assets, cfg.MaxUploadBytes)
	claimH := handler.NewClaimHandler(deps.Claims, cfg.MaxUploadBytes)
	adminH := handler.NewAdminHandler(deps.Admin, deps.Claims)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(registerRL.Limit).Post("/users", userH.Register)

		r.Group(func(r chi.Router) {
			r.Use(nomineeRL.Limit)
			r.Get("/claims/{nomineeID}", claimH.VerifyLink)
			r.Get("/claims/{nomineeID}/status", claimH.Status)
			r.Post("/claims/identity", claimH.ConfirmIdentity)
			r.Post("/claims", claimH.SubmitClaim)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Identity)

			r.Get("/users/me", userH.Me)
			r.Post("/users/me/activity", userH.RecordActivity)
			r.Put("/users/me/inactivity-threshold", userH.SetInactivityThreshold)

			r.Get("/nominees", nomineeH.List)
			r.Post("/nominees", nomineeH.Create)
			r.Put("/nominees/{id}", nomineeH.Update)
			r.Delete("/nominees/{id}", nomineeH.Delete)

			r.Get("/assets", assetH.List)
			r.Post("/assets", assetH.Upload)
			r.Get("/assets/{id}", assetH.Get)
			r.Put("/assets/{id}", assetH.Update)
			r.Delete("/assets/{id}", assetH.Delete)
			r.Get("/assets/{id}/download", assetH.Download)
			r.Put("/assets/{id}/nominees/{nomineeID}", nomineeH.Assign)
			r.Delete("/assets/{id}/nominees/{nomineeID}", nomineeH.Unassign)

			// Admin-only routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/requests", adminH.ListRequests)
				r.Put("/requests/{id}/review", adminH.Review)
				r.Get("/requests/{id}/evidence-url", adminH.EvidenceURL)
				r.Get("/stats", adminH.Stats)
				r.Get("/logs", adminH.Logs)
				r.Get("/users", adminH.Users)
			})
		})
	})

	return r
}
