package config

import "github.com/edgard/statsbot/internal/stats"

// Default values for optional configuration.
const (
	DefaultLogLevel         = "info"
	DefaultDBPath           = "statsbot.db"
	DefaultDBMaxOpenConns   = 4
	DefaultTimezone         = "Etc/UTC"
	DefaultUsersLockTimeout = stats.DefaultUsersLockTimeout
	DefaultS3Prefix         = "statsbot"
)

// DefaultMessages are the texts used when the configuration does not override them.
var DefaultMessages = MessagesConfig{
	GeneralError: "Something went wrong while computing that statistic. Please try again later.",
	UnknownUser:  "unknown userid",
	HelpHeader:   "Chat statistics. Use /stats <statistic> [flags], e.g. /stats hours -me",
}

// DefaultTasks are the scheduled tasks enabled out of the box.
var DefaultTasks = map[string]TaskConfig{
	"refresh_usernames": {Enabled: true, Schedule: "0 0 * * * *", RunOnStart: true},
	"sql_maintenance":   {Enabled: true, Schedule: "0 30 4 * * 0"},
	"backup_upload":     {Enabled: false, Schedule: "0 0 5 * * *"},
	"check_privacy":     {Enabled: true, Schedule: "0 0 6 * * *", RunOnStart: true},
}
