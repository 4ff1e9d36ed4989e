package repositories

import (
	"fmt"
	"github.com/glebarez/sqlite"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"os"
	"path/filepath"
	"strings"
)

// writers wait up to 5s for the database lock
var sqlitePragmas = []string{"busy_timeout(5000)", "journal_mode(WAL)"}

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	if dir := filepath.Dir(connectionString); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(connectionString)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	if err := c.DB.AutoMigrate(models.Lead{}); err != nil {
		return fmt.Errorf("failed to migrate Lead entity: %w", err)
	}
	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}

func withPragmas(connectionString string) string {
	separator := "?"
	if strings.Contains(connectionString, "?") {
		separator = "&"
	}
	return connectionString + separator + "_pragma=" + strings.Join(sqlitePragmas, "&_pragma=")
}
