package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"os"
)

type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Bot     BotConfig     `mapstructure:"bot"`
	DB      DBConfig      `mapstructure:"db"`
	Sheets  SheetsConfig  `mapstructure:"sheets"`
	Mail    MailConfig    `mapstructure:"mail"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type subConfig interface {
	validate() error
	bindEnvironmentVariables(v *viper.Viper) error
}

var configFile = "./configs/config.yaml"

func Get() *Config {

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("couldn't load .env file: %v", err)
	}

	file := configFile
	if value, ok := os.LookupEnv("CONFIG_PATH"); ok && value != "" {
		file = value
	}

	config, err := loadConfig(file)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func loadConfig(file string) (*Config, error) {

	v := viper.New()
	v.SetConfigFile(file)
	v.AutomaticEnv()

	setDefaults(v)

	config := Config{}
	if err := bindEnvironmentVariables(v, config.subConfigs()); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.address", ":8080")
	v.SetDefault("bot.notify_queue_size", 100)
	v.SetDefault("bot.notify_max_per_second", 20)
	v.SetDefault("bot.progress_steps", 4)
	v.SetDefault("sheets.sheet_name", "Leads")
	v.SetDefault("sheets.max_requests_per_second", 1)
	v.SetDefault("mail.port", 587)
}

func (config *Config) subConfigs() map[string]subConfig {
	return map[string]subConfig{
		"LoggerConfig":  &config.Logger,
		"BotConfig":     &config.Bot,
		"DBConfig":      &config.DB,
		"SheetsConfig":  &config.Sheets,
		"MailConfig":    &config.Mail,
		"CatalogConfig": &config.Catalog,
		"MetricsConfig": &config.Metrics,
	}
}

func bindEnvironmentVariables(v *viper.Viper, configs map[string]subConfig) error {
	var errs []error

	for name, sub := range configs {
		if err := sub.bindEnvironmentVariables(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config *Config) validate() error {
	var errs []error

	for name, sub := range config.subConfigs() {
		if err := sub.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func bindEnv(v *viper.Viper, pairs ...string) error {
	var errs []error
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := v.BindEnv(pairs[i], pairs[i+1]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
