// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/wardsync/wardsync/internal/app/features/assignments"
	"github.com/wardsync/wardsync/internal/app/system/workers"
)

// sweepWorker is started here and stopped in Shutdown.
var sweepWorker *workers.ExpirySweep

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. WardSync
// launches the daily expiry sweep here; the sweep runs against the same
// store as the request handlers, with no coordination beyond the document
// writes themselves.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	engine := assignments.NewEngine(deps.MongoDatabase, logger)
	sweepWorker = workers.NewExpirySweep(engine, logger, appCfg.SweepHour)
	sweepWorker.Start()
	return nil
}
