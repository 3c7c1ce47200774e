package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/jobdeck/jobdeck/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(entities.Profile{})
	if err != nil {
		return fmt.Errorf("failed to migrate Profile entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Job{})
	if err != nil {
		return fmt.Errorf("failed to migrate Job entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Interaction{})
	if err != nil {
		return fmt.Errorf("failed to migrate Interaction entity: %w", err)
	}

	// The posting URL is the dedup key: one tracked job per URL per profile.
	if err = c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_profile_job_url ON jobs (profile_id, url)").
		Error; err != nil {
		return fmt.Errorf("failed to create job url index: %w", err)
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
