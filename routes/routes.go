package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"companies-backend/config"
	"companies-backend/controllers"
	"companies-backend/middlewares"
	"companies-backend/models"
)

// NewApp builds the fiber app with the global middleware stack and all routes.
func NewApp(db *gorm.DB, cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.App.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middlewares.RequestLogger(log))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// Default KeyGenerator = client IP; default 429 handler is fine.
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.App.RateLimitMax,
		Expiration: cfg.App.RateLimitWindow,
	}))

	Register(app, db, cfg)
	return app
}

// Register wires all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Public auth endpoints
	auth := controllers.NewAuthController(db, cfg.JWT)
	api.Post("/login", auth.Login)

	// Protected endpoints: JWT auth, then the admin guard, then the idempotency guard.
	companies := controllers.NewCompanyController(db, cfg.Pagination)
	protected := api.Group("/companies",
		middlewares.IsAuthenticatedHeader([]byte(cfg.JWT.Secret)),
		middlewares.RequireRole(models.RoleAdmin),
		middlewares.Idempotency(db),
	)

	protected.Get("/", companies.List)
	protected.Post("/", companies.Create)
	protected.Get("/:id", companies.Show)
	protected.Put("/:id", companies.Update)
	protected.Delete("/:id", companies.Delete)
}
