// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	assignmentsfeature "github.com/wardsync/wardsync/internal/app/features/assignments"
	facilityfeature "github.com/wardsync/wardsync/internal/app/features/facility"
	healthfeature "github.com/wardsync/wardsync/internal/app/features/health"
	"github.com/wardsync/wardsync/internal/app/system/auth"
	"github.com/wardsync/wardsync/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. WardSync mounts three surfaces: the
// health check, the facility catalog, and the assignment engine.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	verifier := auth.NewVerifier(appCfg.AuthTokenKey, appCfg.AuthCookieName, logger)

	var limiter *ratelimit.Limiter
	if appCfg.RateLimitEnabled {
		limiter = ratelimit.New(appCfg.RateLimit, time.Duration(appCfg.RateLimitWindow)*time.Second)
	}

	r := chi.NewRouter()

	// Global auth middleware: loads the verified user into context so every
	// handler can read it via auth.CurrentUser(r).
	r.Use(verifier.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Facility catalog: departments, wards, beds
	facilityHandler := facilityfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/departments", facilityfeature.Routes(facilityHandler, verifier))

	// Assignment engine
	assignmentsHandler := assignmentsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/assignments", assignmentsfeature.Routes(assignmentsHandler, verifier, limiter))

	return r, nil
}
