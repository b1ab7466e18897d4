package bootstrap

import (
	"wardrobe-backend/internal/config"
	"wardrobe-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// New builds the app for the serverless entry in api/. Connections are opened lazily by the
// drivers, so a cold start does not ping the database the way cmd/api does.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg)
	app, res, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("env", cfg.Env).Bool("database", res.DB != nil).Msg("wardrobe-api ready")
	return app, nil
}
