// internal/app/features/facility/routes.go
package facility

import (
	"github.com/go-chi/chi/v5"
	"github.com/wardsync/wardsync/internal/app/system/auth"
	"github.com/wardsync/wardsync/internal/domain/models"
)

// Routes mounts the facility catalog routes (typically at "/departments").
// Any signed-in user may read the hierarchy; only admins and supervisors may
// change it.
func Routes(h *Handler, v *auth.Verifier) chi.Router {
	r := chi.NewRouter()
	r.Use(v.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Get("/{deptID}", h.HandleGet)

	r.Group(func(mr chi.Router) {
		mr.Use(v.RequireRole(models.RoleAdmin, models.RoleSupervisor))

		mr.Post("/", h.HandleCreate)
		mr.Patch("/{deptID}", h.HandleRename)
		mr.Delete("/{deptID}", h.HandleDelete)

		mr.Post("/{deptID}/wards", h.HandleAddWard)
		mr.Delete("/{deptID}/wards/{wardID}", h.HandleRemoveWard)

		mr.Post("/{deptID}/wards/{wardID}/beds", h.HandleAddBed)
		mr.Delete("/{deptID}/wards/{wardID}/beds/{bedID}", h.HandleRemoveBed)
		mr.Patch("/{deptID}/wards/{wardID}/beds/{bedID}", h.HandleBedStatus)
	})

	return r
}
