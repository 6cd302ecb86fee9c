package tasks

import (
	"context"
	"fmt"
)

// newBackupUploadTask ships the JSON lines backup to the configured bucket.
func newBackupUploadTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "backup_upload")

	return func(ctx context.Context) error {
		if deps.Archiver == nil {
			log.WarnContext(ctx, "Backup upload enabled but no bucket is configured, skipping")
			return nil
		}

		keys, err := deps.Archiver.Upload(ctx)
		if err != nil {
			return fmt.Errorf("backup upload failed after %d objects: %w", len(keys), err)
		}
		log.InfoContext(ctx, "Backup uploaded", "objects", len(keys))
		return nil
	}
}
