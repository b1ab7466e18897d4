package router

import (
	"errors"
	"io"

	authsvc "wardrobe-backend/internal/application/auth"
	cartsvc "wardrobe-backend/internal/application/cart"
	checkoutsvc "wardrobe-backend/internal/application/checkout"
	"wardrobe-backend/internal/application/emails"
	healthsvc "wardrobe-backend/internal/application/health"
	listsvc "wardrobe-backend/internal/application/listings"
	ordersvc "wardrobe-backend/internal/application/orders"
	"wardrobe-backend/internal/application/pricing"
	profilesvc "wardrobe-backend/internal/application/profile"
	tradesvc "wardrobe-backend/internal/application/trades"
	uploadsvc "wardrobe-backend/internal/application/uploads"
	wishsvc "wardrobe-backend/internal/application/wishlist"
	"wardrobe-backend/internal/config"
	"wardrobe-backend/internal/infrastructure/database"
	"wardrobe-backend/internal/infrastructure/imaging"
	"wardrobe-backend/internal/infrastructure/messaging"
	"wardrobe-backend/internal/infrastructure/payments"
	"wardrobe-backend/internal/infrastructure/supabase"
	authhandler "wardrobe-backend/internal/interfaces/handlers/auth"
	carthandler "wardrobe-backend/internal/interfaces/handlers/cart"
	checkouthandler "wardrobe-backend/internal/interfaces/handlers/checkout"
	healthhandler "wardrobe-backend/internal/interfaces/handlers/health"
	listhandler "wardrobe-backend/internal/interfaces/handlers/listings"
	orderhandler "wardrobe-backend/internal/interfaces/handlers/orders"
	payhandler "wardrobe-backend/internal/interfaces/handlers/payments"
	profilehandler "wardrobe-backend/internal/interfaces/handlers/profile"
	tradehandler "wardrobe-backend/internal/interfaces/handlers/trades"
	uploadhandler "wardrobe-backend/internal/interfaces/handlers/uploads"
	wishhandler "wardrobe-backend/internal/interfaces/handlers/wishlist"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/retry"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// publisher dials RabbitMQ when configured. Events are best effort, so a failed dial only logs.
func publisher(url string) messaging.Publisher {
	if url == "" {
		return messaging.Nop{}
	}
	r, err := messaging.Dial(url)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events will be dropped")
		return messaging.Nop{}
	}
	return r
}

// Resources are the long-lived clients CreateApp opened. DB is nil when no database is configured.
type Resources struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Events messaging.Publisher
}

// Close releases the event publisher, the database pool and the Redis client, in that order.
func (r *Resources) Close() error {
	var errs []error
	if c, ok := r.Events.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func CreateApp(cfg *config.Config) (*fiber.App, *Resources, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               imaging.MaxUploadBytes + 1<<20,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL, cfg.LogLevel == "debug")
		if err != nil {
			return nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
	}

	policy := retry.Policy{MaxRetries: 3, Base: cfg.RetryBase}
	orders := &ordersvc.Service{DB: db}

	// Registered before the session middleware: Stripe needs the raw body and sends no cookie.
	stripeWebhook := &payhandler.WebhookHandler{WebhookSecret: cfg.StripeWebhookSecret}
	if db != nil {
		stripeWebhook.Ledger = &checkoutsvc.Ledger{DB: db, Orders: orders}
	}
	app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.BearerAuth(cfg.SupabaseJWTSecret))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	collector := &healthsvc.Collector{Rdb: rdb}
	if db != nil {
		collector.DB = &gormDBPinger{db: db}
	}
	if cfg.SupabaseURL != "" {
		collector.Probes = append(collector.Probes, healthsvc.Probe{Name: "supabase", URL: cfg.SupabaseURL + "/auth/v1/health"})
	}
	if cfg.StripeSecretKey != "" {
		collector.Probes = append(collector.Probes, healthsvc.Probe{Name: "stripe", URL: "https://api.stripe.com/healthcheck"})
	}
	hh := &healthhandler.Handlers{Rdb: rdb, Collector: collector, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var (
		storage supabase.Storage
		admin   supabase.AuthAdmin
	)
	if cfg.SupabaseURL != "" && cfg.SupabaseSecretKey != "" {
		sc := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseSecretKey)
		storage, admin = sc, sc
	}

	if db == nil {
		log.Warn().Msg("DATABASE_URL not set, only health routes are served")
		return app, &Resources{Redis: rdb, Events: messaging.Nop{}}, nil
	}

	events := publisher(cfg.RabbitMQURL)
	res := &Resources{DB: db, Redis: rdb, Events: events}
	profiles := &profilesvc.Service{DB: db, Auth: admin, Retry: policy}
	listings := &listsvc.Service{DB: db, Storage: storage, Bucket: cfg.SupabaseBucket, Retry: policy}
	carts := cartsvc.NewStore(&cartsvc.RedisRepository{RDB: rdb, TTL: cfg.CartTTL})

	// Auth
	ah := &authhandler.Handlers{
		Service: &authsvc.Service{JWTSecret: cfg.SupabaseJWTSecret, Profiles: profiles},
		Rdb:     rdb,
		Config:  sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/session", ah.CreateSession)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)
	authGroup.Delete("/sessions", middleware.RequireAuth(), ah.LogoutAll)

	// Listings are public to browse; writes need a user.
	lh := &listhandler.Handlers{Service: listings, Pricing: &pricing.Service{DB: db}}
	uph := &uploadhandler.Handlers{Service: &uploadsvc.Service{Storage: storage, Bucket: cfg.SupabaseBucket, Listings: listings, Retry: policy}}
	lg := app.Group("/api/v1/listings")
	lg.Get("/", lh.List)
	lg.Get("/mine", middleware.RequireAuth(), lh.Mine)
	lg.Post("/batch", lh.Batch)
	lg.Get("/:id", lh.Get)
	lg.Get("/:id/rental-quote", lh.Quote)
	lg.Post("/", middleware.RequireAuth(), lh.Create)
	lg.Patch("/:id", middleware.RequireAuth(), lh.Update)
	lg.Delete("/:id", middleware.RequireAuth(), lh.Delete)
	lg.Post("/:id/images", middleware.RequireAuth(), uph.ListingImage)

	upg := app.Group("/api/v1/uploads", middleware.RequireAuth())
	upg.Post("/signed-url", uph.SignedURL)

	// Cart
	ch := &carthandler.Handlers{Store: carts, Listings: listings}
	cg := app.Group("/api/v1/cart", middleware.RequireAuth())
	cg.Get("/", ch.Get)
	cg.Post("/items", ch.AddItem)
	cg.Delete("/items/:listing_id", ch.RemoveItem)
	cg.Delete("/", ch.Clear)

	// Checkout
	var mailer emails.Sender
	if cfg.BrevoAPIKey != "" {
		mailer = &emails.BrevoClient{APIKey: cfg.BrevoAPIKey, MailFrom: cfg.MailFrom}
	}
	coh := &checkouthandler.Handlers{Mailer: mailer, Orchestrator: &checkoutsvc.Orchestrator{
		Carts:    carts,
		Gateway:  payments.NewStripeGateway(cfg.StripeSecretKey),
		Orders:   orders,
		Listings: listings,
		Events:   events,
		Retry:    policy,
		Currency: cfg.StripeCurrency,
	}}
	cog := app.Group("/api/v1/checkout", middleware.RequireAuth())
	cog.Post("/intent", coh.CreateIntent)
	cog.Post("/complete", coh.Complete)

	// Orders
	oh := &orderhandler.Handlers{Service: orders}
	og := app.Group("/api/v1/orders", middleware.RequireAuth())
	og.Get("/", oh.List)
	og.Get("/:id", oh.Get)

	// Trades
	th := &tradehandler.Handlers{Service: &tradesvc.Service{DB: db, Listings: listings, Events: events, Retry: policy}}
	tg := app.Group("/api/v1/trades", middleware.RequireAuth())
	tg.Post("/", th.Propose)
	tg.Get("/", th.List)
	tg.Get("/:id", th.Get)
	tg.Post("/:id/accept", th.Accept)
	tg.Post("/:id/reject", th.Reject)
	tg.Post("/:id/cancel", th.Cancel)

	// Wishlist
	wh := &wishhandler.Handlers{Service: &wishsvc.Service{DB: db}}
	wg := app.Group("/api/v1/wishlist", middleware.RequireAuth())
	wg.Get("/", wh.List)
	wg.Post("/:listing_id", wh.Add)
	wg.Delete("/:listing_id", wh.Remove)

	// Profile
	ph := &profilehandler.Handlers{Service: profiles}
	app.Get("/api/v1/profiles/:id", ph.Get)
	pg := app.Group("/api/v1/profile", middleware.RequireAuth())
	pg.Get("/", ph.Me)
	pg.Patch("/", ph.Update)

	return app, res, nil
}
