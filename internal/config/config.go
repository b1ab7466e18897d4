package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + optional .env file).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // storage and auth admin endpoints
	SupabaseSecretKey   string // service_role key, not the anon key
	SupabaseJWTSecret   string
	SupabaseBucket      string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string
	RabbitMQURL         string
	BrevoAPIKey         string
	MailFrom            string
	CartTTL             time.Duration
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	LogLevel            string
	RetryBase           time.Duration
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads config from env and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SUPABASE_BUCKET", "listing-images")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("CART_TTL_HOURS", 24*7)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RETRY_BASE_MS", 1000)

	env := v.GetString("APP_ENV")
	dbURL := v.GetString("DATABASE_URL_DEV")
	switch env {
	case "production":
		dbURL = v.GetString("DATABASE_URL_PROD")
	case "test":
		dbURL = v.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		SupabaseURL:         strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		SupabaseSecretKey:   v.GetString("SUPABASE_SECRET_KEY"),
		SupabaseJWTSecret:   v.GetString("SUPABASE_JWT_SECRET"),
		SupabaseBucket:      v.GetString("SUPABASE_BUCKET"),
		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      strings.ToLower(v.GetString("STRIPE_CURRENCY")),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		BrevoAPIKey:         v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		CartTTL:             time.Duration(v.GetInt("CART_TTL_HOURS")) * time.Hour,
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		RetryBase:           time.Duration(v.GetInt("RETRY_BASE_MS")) * time.Millisecond,
	}, nil
}

// SetupLogging sets the global zerolog level, with console output outside production.
func SetupLogging(cfg *Config) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
