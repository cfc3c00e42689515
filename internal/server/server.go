// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "blackdonut/docs" // swagger docs
	"blackdonut/internal/cache"
	"blackdonut/internal/config"
	"blackdonut/internal/database"
	"blackdonut/internal/featureflags"
	"blackdonut/internal/mailer"
	"blackdonut/internal/media"
	"blackdonut/internal/middleware"
	"blackdonut/internal/models"
	"blackdonut/internal/notifications"
	"blackdonut/internal/repository"
	"blackdonut/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "blackdonut-api"

// pinger is implemented by media stores that can report their health.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	app         *fiber.App
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc

	userRepo       repository.UserRepository
	partnerRepo    repository.FoodPartnerRepository
	foodRepo       repository.FoodRepository
	commentRepo    repository.CommentRepository
	engagementRepo repository.EngagementRepository

	media        media.Store
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	authService       *service.AuthService
	commentService    *service.CommentService
	engagementService *service.EngagementService
	foodService       *service.FoodService
	partnerService    *service.PartnerService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	store, err := newMediaStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, cache.GetClient(), store, newMailer(cfg))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil store or mailer disables uploads or email respectively.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store, mail mailer.Mailer) (*Server, error) {
	if store == nil {
		store = media.Disabled{}
	}
	if mail == nil {
		mail = mailer.Disabled{}
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		userRepo:       repository.NewUserRepository(db),
		partnerRepo:    repository.NewFoodPartnerRepository(db),
		foodRepo:       repository.NewFoodRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		engagementRepo: repository.NewEngagementRepository(db),
		media:          store,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(),
	}

	s.authService = service.NewAuthService(s.userRepo, s.partnerRepo, store, mail, service.AuthConfig{
		FrontendURL:   cfg.FrontendURL,
		ResetTokenTTL: cfg.ResetTokenTTL,
	})
	s.commentService = service.NewCommentService(s.commentRepo, s.foodRepo)
	s.engagementService = service.NewEngagementService(s.engagementRepo, s.foodRepo)
	s.foodService = service.NewFoodService(s.foodRepo, store)
	s.partnerService = service.NewPartnerService(s.partnerRepo, store)

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}
	return s, nil
}

func newMediaStore(cfg *config.Config) (media.Store, error) {
	if !cfg.MediaConfigured() {
		middleware.Logger.Warn("cloudinary credentials missing, uploads disabled")
		return media.Disabled{}, nil
	}
	return media.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
}

func newMailer(cfg *config.Config) mailer.Mailer {
	if !cfg.MailConfigured() {
		middleware.Logger.Warn("SMTP_HOST not set, password reset email disabled")
		return mailer.Disabled{}
	}
	return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Black Donut API",
		BodyLimit: s.bodyLimit(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) bodyLimit() int {
	mb := s.config.MaxUploadSizeMB
	if mb <= 0 {
		mb = 100
	}
	return mb * 1024 * 1024
}

// allowedOrigins falls back to the frontend URL; credentialed CORS cannot use a wildcard.
func (s *Server) allowedOrigins() []string {
	if origins := s.config.Origins(); len(origins) > 0 {
		return origins
	}
	if s.config.FrontendURL != "" {
		return []string{s.config.FrontendURL}
	}
	return []string{"http://localhost:5173"}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	middleware.InitMetrics(app, serviceName)
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers. Cookies require explicit origins.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     joinOrigins(s.allowedOrigins()),
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	api.Get("/feature-flags", s.GetFeatureFlags)

	authLimit := middleware.RateLimit(s.redis, s.config.RateLimitAuthRequests, s.config.RateLimitWindow, "auth")
	writeLimit := middleware.RateLimit(s.redis, s.config.RateLimitWriteRequests, s.config.RateLimitWindow, "write")

	auth := api.Group("/auth", noStore)
	auth.Post("/user/register", authLimit, s.RegisterUser)
	auth.Post("/user/login", authLimit, s.LoginUser)
	auth.Get("/user/logout", s.LogoutUser)
	auth.Post("/user/forgot-password", authLimit, s.ForgotPassword(models.ActorUser))
	auth.Post("/user/reset-password", authLimit, s.ResetPassword(models.ActorUser))
	auth.Post("/food-partner/register", authLimit, s.RegisterFoodPartner)
	auth.Post("/food-partner/login", authLimit, s.LoginFoodPartner)
	auth.Get("/food-partner/logout", s.LogoutFoodPartner)
	auth.Post("/food-partner/forgot-password", authLimit, s.ForgotPassword(models.ActorFoodPartner))
	auth.Post("/food-partner/reset-password", authLimit, s.ResetPassword(models.ActorFoodPartner))

	// Specific /:id/... routes before the generic /:id route.
	food := api.Group("/food")
	food.Post("/", s.PartnerRequired(), writeLimit, s.CreateFood)
	food.Get("/", s.UserRequired(), s.ListFoods)
	food.Post("/like", s.UserRequired(), s.ToggleLike)
	food.Post("/save", s.UserRequired(), s.ToggleSave)
	food.Get("/save", s.UserRequired(), s.ListSavedFoods)
	food.Put("/:id/name", s.PartnerRequired(), s.RenameFood)
	food.Put("/:id/description", s.PartnerRequired(), s.DescribeFood)
	food.Delete("/:id", s.PartnerRequired(), s.DeleteFood)

	partner := api.Group("/food-partner")
	partner.Get("/me", s.PartnerRequired(), s.GetMyPartnerProfile)
	partner.Put("/name", s.PartnerRequired(), s.UpdatePartnerField(service.FieldName, "name", "Food partner name updated successfully"))
	partner.Put("/address", s.PartnerRequired(), s.UpdatePartnerField(service.FieldAddress, "address", "Food partner address updated successfully"))
	partner.Put("/contact-name", s.PartnerRequired(), s.UpdatePartnerField(service.FieldContactName, "contactName", "Food partner contact name updated successfully"))
	partner.Put("/phone", s.PartnerRequired(), s.UpdatePartnerField(service.FieldPhone, "phone", "Food partner contact number updated successfully"))
	partner.Put("/customers-served", s.PartnerRequired(), s.UpdateCustomersServed)
	partner.Put("/profile-picture", s.PartnerRequired(), writeLimit, s.UpdateProfilePicture)
	partner.Get("/:id", s.UserRequired(), s.GetPartnerProfile)

	comments := api.Group("/comments")
	comments.Post("/", s.UserRequired(), writeLimit, s.AddComment)
	comments.Post("/add-by-partner", s.PartnerRequired(), writeLimit, s.AddPartnerComment)
	comments.Get("/food/:foodId", s.ListComments)
	comments.Get("/engagement/:foodId", s.PartnerRequired(), s.GetEngagementStats)
	comments.Put("/engagement/:commentId/pin", s.PartnerRequired(), s.TogglePin)
	comments.Post("/engagement/:commentId/reply", s.PartnerRequired(), s.ReplyToComment)
	comments.Delete("/engagement/:commentId", s.PartnerRequired(), s.DeleteCommentAsOwner)
	comments.Delete("/:id", s.UserRequired(), s.DeleteOwnComment)

	api.Get("/ws", s.PartnerRequired(), s.EngagementWebSocket())
}

// noStore keeps credentials responses out of shared caches.
func noStore(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Next()
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The media host is
// reported but does not affect readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unavailable"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	mediaStatus := "unconfigured"
	if p, ok := s.media.(pinger); ok {
		mediaStatus = "healthy"
		if err := p.Ping(ctx); err != nil {
			mediaStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"media":    mediaStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app, wires realtime delivery and listens.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.app = s.NewApp()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("engagement hub wiring failed", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("http shutdown failed", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("hub shutdown failed", slog.String("error", err.Error()))
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("closing database failed", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("closing redis failed", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
