package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/korsetof/chatmod/internal/config"
	"github.com/korsetof/chatmod/internal/models"
)

// NewPostgresDB opens the database and configures the connection pool.
func NewPostgresDB(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if log != nil {
		log.Info("postgres connected", "host", cfg.Host, "database", cfg.Name)
	}
	return db, nil
}

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.DirectMessage{},
		&models.RoomMessage{},
		&models.Like{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Query-path indexes AutoMigrate does not derive from tags.
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_direct_messages_pair ON direct_messages (sender_id, receiver_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_direct_messages_unread ON direct_messages (receiver_id) WHERE read = false",
		"CREATE INDEX IF NOT EXISTS idx_room_messages_room ON room_messages (room_id, created_at)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
