package database

import (
	"wardrobe-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN (Supabase/Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer-style poolers.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(level)})
}

// Models is every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.Profile{},
		&domain.Listing{},
		&domain.ListingImage{},
		&domain.ListingTag{},
		&domain.ListingAvailability{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Payment{},
		&domain.TradeProposal{},
		&domain.WishlistItem{},
	}
}

// AutoMigrate creates or updates the tables in Models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info().Int("tables", len(Models())).Msg("database migrated")
	return nil
}
