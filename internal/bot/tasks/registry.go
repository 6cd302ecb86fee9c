package tasks

import "context"

// ScheduledTaskFunc is the signature of every scheduled task. The context is
// cancelled when the scheduler shuts down.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by its name in the scheduler config.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		"refresh_usernames": newRefreshUsernamesTask(deps),
		"sql_maintenance":   newSQLMaintenanceTask(deps),
		"backup_upload":     newBackupUploadTask(deps),
		"check_privacy":     newCheckPrivacyTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
