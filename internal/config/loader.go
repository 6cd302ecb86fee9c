package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every configuration loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// LoadConfig loads the configuration from, in increasing priority:
//  1. default values
//  2. the YAML file at path (optional)
//  3. BOT_* environment variables (e.g. BOT_TELEGRAM_TOKEN)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to read config file %q: %w", ErrConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if cfg.Backup.S3.Bucket != "" && cfg.Backup.Dir == "" {
		return fmt.Errorf("%w: backup.s3.bucket requires backup.dir", ErrConfiguration)
	}
	return nil
}

// setDefaults registers every optional key so that env overrides are picked up
// even when the key is absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.stats_commands", []string{"stats", "s"})

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)

	v.SetDefault("stats.timezone", DefaultTimezone)
	v.SetDefault("stats.users_lock_timeout", DefaultUsersLockTimeout)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
		v.SetDefault("scheduler.tasks."+name+".run_on_start", task.RunOnStart)
	}

	v.SetDefault("backup.dir", "")
	v.SetDefault("backup.s3.bucket", "")
	v.SetDefault("backup.s3.region", "")
	v.SetDefault("backup.s3.endpoint", "")
	v.SetDefault("backup.s3.prefix", DefaultS3Prefix)
	v.SetDefault("backup.s3.use_path_style", false)

	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.unknown_user", DefaultMessages.UnknownUser)
	v.SetDefault("messages.help_header", DefaultMessages.HelpHeader)
}
