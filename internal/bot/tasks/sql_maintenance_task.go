package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask optimizes the full-text index and vacuums the database.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		startTime := time.Now()

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(startTime))
		return nil
	}
}
