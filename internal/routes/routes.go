package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/tradepost/internal/handlers"
	"github.com/BradenHooton/tradepost/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Listing *handlers.ListingHandler
}

// Sessions holds the session middlewares. Require rejects requests without a
// valid, unrevoked session; Optional only attaches one when present.
type Sessions struct {
	Require  func(http.Handler) http.Handler
	Optional func(http.Handler) http.Handler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, sessions Sessions) {
	requireSession := sessions.Require
	authLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())
	writeLimit := middleware.RateLimitByUserID(middleware.DefaultWriteRateLimit())

	router.Route("/api/auth", func(r chi.Router) {
		r.With(authLimit).Post("/signup", h.Auth.Signup)
		r.With(authLimit).Post("/signin", h.Auth.SignIn)
		r.With(authLimit).Post("/google", h.Auth.Google)
		r.With(sessions.Optional).Get("/signout", h.Auth.SignOut)
	})

	router.Route("/api/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.With(writeLimit).Post("/update/{id}", h.User.UpdateUser)
			r.With(writeLimit).Delete("/delete/{id}", h.User.DeleteUser)
			r.Get("/listings/{id}", h.User.GetUserListings)
		})
		r.Get("/{id}", h.User.GetUser)
	})

	router.Route("/api/listing", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireSession, writeLimit)
			r.Post("/create", h.Listing.CreateListing)
			r.Delete("/delete/{id}", h.Listing.DeleteListing)
			r.Post("/update/{id}", h.Listing.UpdateListing)
		})
		r.Get("/get/{id}", h.Listing.GetListing)
		r.Get("/get", h.Listing.ListListings)
	})
}
