package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// MailConfig enables e-mail copies of lead notifications when Host is set.
type MailConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port" validate:"required_with=Host"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from" validate:"required_with=Host"`
	To       []string `mapstructure:"to" validate:"required_with=Host,dive,email"`
}

func (config MailConfig) Enabled() bool {
	return config.Host != ""
}

func (config MailConfig) validate() error {
	return validator.New().Struct(config)
}

func (config MailConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v,
		"mail.host", "SMTP_HOST",
		"mail.port", "SMTP_PORT",
		"mail.username", "SMTP_USERNAME",
		"mail.password", "SMTP_PASSWORD",
		"mail.from", "SMTP_FROM",
	)
}
