package config

import (
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"path/filepath"
)

// DBConfig points to the sqlite file used when no spreadsheet is configured.
type DBConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
}

func (config DBConfig) validate() error {
	if config.ConnectionString == "" {
		return errors.New("missing variable: db connection string")
	}
	if filepath.Ext(config.ConnectionString) == "" {
		return errors.New("db connection string must be a sqlite file path")
	}
	return nil
}

func (config DBConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, "db.connection_string", "DB_CONNECTION_STRING")
}

// SheetsConfig switches lead storage to a Google spreadsheet when SpreadsheetID is set.
type SheetsConfig struct {
	SpreadsheetID        string  `mapstructure:"spreadsheet_id"`
	SheetName            string  `mapstructure:"sheet_name" validate:"required"`
	CredentialsFile      string  `mapstructure:"credentials_file" validate:"required_with=SpreadsheetID"`
	MaxRequestsPerSecond float32 `mapstructure:"max_requests_per_second" validate:"gt=0"`
}

func (config SheetsConfig) Enabled() bool {
	return config.SpreadsheetID != ""
}

func (config SheetsConfig) validate() error {
	return validator.New().Struct(config)
}

func (config SheetsConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v,
		"sheets.spreadsheet_id", "SHEETS_SPREADSHEET_ID",
		"sheets.sheet_name", "SHEETS_SHEET_NAME",
		"sheets.credentials_file", "SHEETS_CREDENTIALS_FILE",
	)
}
