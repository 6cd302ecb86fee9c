// Package config loads, defaults and validates the bot configuration.
package config

import (
	"time"
	_ "time/tzdata" // zones are resolved from config, not the host

	"github.com/go-telegram/bot/models"
)

// Config is the root configuration of the bot.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the monitored chat.
type TelegramConfig struct {
	Token string `mapstructure:"token"   validate:"required"`
	// ChatID is the group whose messages are logged. Zero disables logging.
	ChatID int64 `mapstructure:"chat_id"`
	// StatsCommands are the command names answering statistic requests.
	StatsCommands []string `mapstructure:"stats_commands" validate:"required,min=1,dive,required"`

	// BotInfo is filled at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig locates the SQLite chat log.
type DatabaseConfig struct {
	Path         string `mapstructure:"path"           validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"min=1,max=64"`
}

// StatsConfig configures the statistics engine.
type StatsConfig struct {
	// Timezone is the IANA zone used to display and bucket dates.
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
	// UsersLockTimeout bounds the wait for the identity cache writer lock.
	UsersLockTimeout time.Duration `mapstructure:"users_lock_timeout" validate:"min=100ms,max=1m"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a cron expression with a leading seconds field.
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
	// RunOnStart also runs the task right after the scheduler starts.
	RunOnStart bool `mapstructure:"run_on_start"`
}

// BackupConfig configures the JSON lines backup and its optional S3 archive.
type BackupConfig struct {
	// Dir enables the JSON lines backup when non-empty.
	Dir string   `mapstructure:"dir"`
	S3  S3Config `mapstructure:"s3"`
}

// S3Config locates the bucket receiving compressed backups.
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint" validate:"omitempty,url"`
	Prefix       string `mapstructure:"prefix"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// MessagesConfig holds user-facing texts sent by the bot.
type MessagesConfig struct {
	GeneralError string `mapstructure:"general_error" validate:"required"`
	UnknownUser  string `mapstructure:"unknown_user"  validate:"required"`
	HelpHeader   string `mapstructure:"help_header"   validate:"required"`
}
