// Package database opens the GORM connection and migrates the forum schema.
package database

import (
	"fmt"

	"github.com/example/community-forum/config"
	"github.com/example/community-forum/domain/forum"
	"github.com/example/community-forum/domain/user"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// A single connection serializes writers and keeps :memory: databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates every forum table.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&forum.Room{}, "Participants", &forum.RoomParticipant{}); err != nil {
		return fmt.Errorf("failed to setup participants join table: %w", err)
	}
	if err := db.AutoMigrate(
		&user.User{},
		&forum.Topic{},
		&forum.Room{},
		&forum.RoomParticipant{},
		&forum.Message{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Ping()
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}
