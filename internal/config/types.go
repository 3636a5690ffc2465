// Package config provides configuration loading, validation, and defaults
// for the relay bot. Values come from config.yaml and BOT_* environment
// variables, layered over built-in defaults.
package config

import "time"

// Config defines the application configuration for all components:
// logging, Telegram transport, relay behavior, database, and scheduler.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the single administrator identity.
type TelegramConfig struct {
	Token       string `mapstructure:"token"    validate:"required"`
	AdminUserID int64  `mapstructure:"admin_id" validate:"required,gt=0"`
}

// MessagesConfig holds every user-visible text the bot sends. All fields
// have defaults and can be overridden for localization.
type MessagesConfig struct {
	WelcomeUser     string `mapstructure:"welcome_user"`
	WelcomeAdmin    string `mapstructure:"welcome_admin"`
	HelpUser        string `mapstructure:"help_user"`
	HelpAdmin       string `mapstructure:"help_admin"`
	MessageReceived string `mapstructure:"message_received"`

	BroadcastPrompt  string `mapstructure:"broadcast_prompt"`
	BroadcastStarted string `mapstructure:"broadcast_started"`
	BroadcastSummary string `mapstructure:"broadcast_summary"`

	ReplyPrompt    string `mapstructure:"reply_prompt"`
	ReplySent      string `mapstructure:"reply_sent"`
	ReplyFailed    string `mapstructure:"reply_failed"`
	NoMessages     string `mapstructure:"no_messages"`
	NoStats        string `mapstructure:"no_stats"`
	MessageDeleted string `mapstructure:"message_deleted"`
	StatsCleared   string `mapstructure:"stats_cleared"`

	NotAuthorized string `mapstructure:"not_authorized"`
	NotFound      string `mapstructure:"not_found"`
	UserNotFound  string `mapstructure:"user_not_found"`
	GeneralError  string `mapstructure:"general_error"`
}

// RelayConfig controls delivery retry and broadcast pacing behavior.
type RelayConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"    validate:"min=1,max=10"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"     validate:"min=0"`
	BroadcastPause time.Duration `mapstructure:"broadcast_pause" validate:"min=0"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig holds the set of scheduled maintenance tasks, keyed by
// task name as registered in the task registry.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task with a cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
