package config

import (
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type BotConfig struct {
	Token                string        `mapstructure:"token"`
	OperatorChatID       int64         `mapstructure:"operator_chat_id"`
	OperatorContact      string        `mapstructure:"operator_contact"`
	AdminIDs             []int64       `mapstructure:"admin_ids"`
	AdminUsernames       []string      `mapstructure:"admin_usernames"`
	TypingDelay          time.Duration `mapstructure:"typing_delay"`
	ProgressDelay        time.Duration `mapstructure:"progress_delay"`
	ProgressSteps        int           `mapstructure:"progress_steps"`
	SubscriptionCacheTTL time.Duration `mapstructure:"subscription_cache_ttl"`
	NotifyQueueSize      int           `mapstructure:"notify_queue_size"`
	NotifyMaxPerSecond   float32       `mapstructure:"notify_max_per_second"`
	DigestSchedule       string        `mapstructure:"digest_schedule"`
}

func (config BotConfig) validate() error {

	var missingFields []string

	if config.Token == "" {
		missingFields = append(missingFields, "token")
	}

	if config.OperatorChatID == 0 {
		missingFields = append(missingFields, "operator_chat_id")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	if config.ProgressSteps <= 0 {
		return fmt.Errorf("progress_steps must be greater than zero")
	}

	if config.NotifyQueueSize <= 0 {
		return fmt.Errorf("notify_queue_size must be greater than zero")
	}

	return nil
}

func (config BotConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v,
		"bot.token", "TOKEN",
		"bot.operator_chat_id", "OPERATOR_CHAT_ID",
		"bot.operator_contact", "OPERATOR_CONTACT",
		"bot.admin_ids", "ADMIN_IDS",
		"bot.typing_delay", "TYPING_DELAY",
		"bot.progress_delay", "PROGRESS_DELAY",
		"bot.digest_schedule", "DIGEST_SCHEDULE",
	)
}
