package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. The config file at configPath (optional)
// 3. BOT_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, everything can come from env.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values for all optional parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	// Empty defaults so viper knows these keys exist; AutomaticEnv only
	// feeds Unmarshal for registered keys. Validation rejects the zero
	// values if nothing fills them in.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", 0)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("relay.max_attempts", DefaultRelayMaxAttempts)
	v.SetDefault("relay.retry_delay", DefaultRelayRetryDelay)
	v.SetDefault("relay.broadcast_pause", DefaultRelayBroadcastPause)

	v.SetDefault("messages.welcome_user", DefaultMessages.WelcomeUser)
	v.SetDefault("messages.welcome_admin", DefaultMessages.WelcomeAdmin)
	v.SetDefault("messages.help_user", DefaultMessages.HelpUser)
	v.SetDefault("messages.help_admin", DefaultMessages.HelpAdmin)
	v.SetDefault("messages.message_received", DefaultMessages.MessageReceived)
	v.SetDefault("messages.broadcast_prompt", DefaultMessages.BroadcastPrompt)
	v.SetDefault("messages.broadcast_started", DefaultMessages.BroadcastStarted)
	v.SetDefault("messages.broadcast_summary", DefaultMessages.BroadcastSummary)
	v.SetDefault("messages.reply_prompt", DefaultMessages.ReplyPrompt)
	v.SetDefault("messages.reply_sent", DefaultMessages.ReplySent)
	v.SetDefault("messages.reply_failed", DefaultMessages.ReplyFailed)
	v.SetDefault("messages.no_messages", DefaultMessages.NoMessages)
	v.SetDefault("messages.no_stats", DefaultMessages.NoStats)
	v.SetDefault("messages.message_deleted", DefaultMessages.MessageDeleted)
	v.SetDefault("messages.stats_cleared", DefaultMessages.StatsCleared)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.not_found", DefaultMessages.NotFound)
	v.SetDefault("messages.user_not_found", DefaultMessages.UserNotFound)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
}
