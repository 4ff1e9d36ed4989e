package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type MaterialConfig struct {
	Title string `mapstructure:"title" validate:"required"`
	File  string `mapstructure:"file" validate:"required"`
}

type SubjectConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	// Channel is the gating channel, e.g. "@dogphysic". Empty means materials are not gated.
	Channel   string           `mapstructure:"channel"`
	Materials []MaterialConfig `mapstructure:"materials" validate:"dive"`
}

type CatalogConfig struct {
	MaterialsDir string          `mapstructure:"materials_dir" validate:"required"`
	Subjects     []SubjectConfig `mapstructure:"subjects" validate:"dive"`
}

func (config CatalogConfig) validate() error {
	return validator.New().Struct(config)
}

func (config CatalogConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("catalog.materials_dir", "MATERIALS_DIR")
}
