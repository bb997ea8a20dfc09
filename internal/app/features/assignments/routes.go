// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/go-chi/chi/v5"
	"github.com/wardsync/wardsync/internal/app/system/auth"
	"github.com/wardsync/wardsync/internal/app/system/ratelimit"
)

// Routes mounts the assignment routes under whatever base path the caller
// chooses (typically "/assignments" from bootstrap). Every route requires a
// signed-in user; ownership and admin checks happen inside the engine.
//
// Example from bootstrap:
//
//	h := assignments.NewHandler(db, logger)
//	r.Mount("/assignments", assignments.Routes(h, verifier, limiter))
func Routes(h *Handler, v *auth.Verifier, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(v.RequireSignedIn)

	// Reads
	r.Get("/my", h.HandleMyAssignments)
	r.Get("/user/{userID}/expiry", h.HandleUserExpiry)

	// Mutations, rate limited per user
	r.Group(func(pr chi.Router) {
		if limiter != nil {
			pr.Use(ratelimit.Middleware(limiter))
		}
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Patch("/{id}/expiry", h.HandleUpdateExpiry)
		pr.Patch("/{id}/add-beds", h.HandleAddBeds)
		pr.Patch("/{id}/remove-beds", h.HandleRemoveBeds)
	})

	return r
}
