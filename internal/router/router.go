// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// catalog API. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lenscatalog/internal/handlers"
	"lenscatalog/internal/middleware"
)

// Deps carries everything the router wires together.
type Deps struct {
	Sessions middleware.SessionGetter
	Public   *handlers.Public
	Auth     *handlers.Auth
	Admin    *handlers.Admin

	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	// LoginLimiter throttles the password and second-factor steps of
	// signing in. Nil disables throttling.
	LoginLimiter *middleware.RateLimiter

	CORSOrigins   []string
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	if d.Metrics != nil {
		r.Use(d.Metrics.Handler)
	}
	r.Use(middleware.SecureHeaders(d.SecureCookies))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Health and metrics. No auth, no CSRF.
	r.Get("/health", d.Public.Health)
	r.Get("/healthcheck", d.Public.Healthcheck)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Public storefront.
	r.Get("/categories", d.Public.Categories)
	r.Get("/products", d.Public.Products)
	r.Get("/products/{id}", d.Public.Product)
	r.Get("/images/*", d.Public.Image)
	r.Head("/images/*", d.Public.Image)

	// Admin API: CSRF on every state change, session loaded for all.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.NewCSRF(d.SecureCookies))
		r.Use(middleware.LoadSession(d.Sessions))

		signIn := r
		if d.LoginLimiter != nil {
			signIn = r.With(d.LoginLimiter.Middleware)
		}

		r.Get("/csrf", d.Auth.CSRFToken)
		signIn.Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)

		// Second factor: needs the password step, not a completed login.
		signIn.With(middleware.RequirePending).Post("/2fa/verify", d.Auth.TwoFAVerify)

		// Fully authenticated admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", d.Auth.Me)
			r.Post("/change-password", d.Auth.ChangePassword)
			r.Post("/2fa/setup", d.Auth.TwoFASetup)
			r.Post("/2fa/enable", d.Auth.TwoFAEnable)

			r.Get("/dashboard/stats", d.Admin.DashboardStats)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", d.Admin.ListCategories)
				r.Post("/", d.Admin.CreateCategory)
				// Registered before /{id} so "reorder" is never read as an id.
				r.Put("/reorder", d.Admin.ReorderCategories)
				r.Get("/{id}", d.Admin.GetCategory)
				r.Put("/{id}", d.Admin.UpdateCategory)
				r.Delete("/{id}", d.Admin.DeleteCategory)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", d.Admin.ListProducts)
				r.Post("/", d.Admin.CreateProduct)
				r.Get("/{id}", d.Admin.GetProduct)
				r.Put("/{id}", d.Admin.UpdateProduct)
				r.Delete("/{id}", d.Admin.DeleteProduct)
				r.Patch("/{id}/status", d.Admin.ToggleProductStatus)
			})

			r.Post("/upload/image", d.Admin.UploadImage)
		})
	})

	return r
}
