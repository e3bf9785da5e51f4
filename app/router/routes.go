// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/textpulse/campaign-console/app/dto"
	"github.com/textpulse/campaign-console/app/handlers"
	appmiddleware "github.com/textpulse/campaign-console/app/middleware"
	"github.com/textpulse/campaign-console/config"
	"github.com/textpulse/campaign-console/utils"
	"gorm.io/gorm"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles every handler the router mounts
type Handlers struct {
	Campaign    handlers.CampaignHandlerInterface
	Execution   handlers.ExecutionHandlerInterface
	Audience    handlers.AudienceHandlerInterface
	Contact     handlers.ContactHandlerInterface
	MailingList handlers.MailingListHandlerInterface
	Template    handlers.TemplateHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app         *fiber.App
	handlers    Handlers
	cfg         *config.ProductionConfig
	db          *gorm.DB
	redisClient *redis.Client
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(h Handlers, cfg *config.ProductionConfig, db *gorm.DB, redisClient *redis.Client) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Campaign Console API",
		ServerHeader: "campaign-console",
		ErrorHandler: errorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:         app,
		handlers:    h,
		cfg:         cfg,
		db:          db,
		redisClient: redisClient,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.RateLimitMax,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: &dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Campaign store and lifecycle
	campaigns := api.Group("/campaigns")
	campaigns.Get("/", r.handlers.Campaign.ListCampaigns)
	campaigns.Post("/", r.handlers.Campaign.CreateCampaign)
	campaigns.Get("/:uuid", r.handlers.Campaign.GetCampaign)
	campaigns.Put("/:uuid", r.handlers.Campaign.UpdateCampaign)
	campaigns.Delete("/:uuid", r.handlers.Campaign.DeleteCampaign)
	campaigns.Post("/:uuid/pause", r.handlers.Campaign.PauseCampaign)
	campaigns.Post("/:uuid/resume", r.handlers.Campaign.ResumeCampaign)
	campaigns.Post("/:uuid/stop", r.handlers.Campaign.StopCampaign)
	campaigns.Post("/:uuid/reactivate", r.handlers.Campaign.ReactivateCampaign)
	campaigns.Post("/:uuid/cancel", r.handlers.Campaign.CancelCampaign)

	// Execution wizard
	campaigns.Post("/:uuid/execution", r.handlers.Execution.OpenExecution)
	campaigns.Post("/:uuid/execution/report", r.handlers.Execution.SubmitReport)
	campaigns.Get("/:uuid/execution/report", r.handlers.Execution.GetReport)
	campaigns.Post("/:uuid/execution/proceed", r.handlers.Execution.ProceedToSend)
	campaigns.Post("/:uuid/execution/send", r.handlers.Execution.Send)
	campaigns.Get("/:uuid/executions", r.handlers.Execution.ListExecutions)

	// Audience resolution
	audience := api.Group("/audience")
	audience.Post("/resolve", r.handlers.Audience.ResolveAudience)
	audience.Get("/preview/:listUUID", r.handlers.Audience.PreviewAudience)

	// Read-mostly collaborators
	contacts := api.Group("/contacts")
	contacts.Get("/", r.handlers.Contact.ListContacts)
	contacts.Post("/", r.handlers.Contact.CreateContact)
	contacts.Get("/:uuid", r.handlers.Contact.GetContact)

	mailingLists := api.Group("/mailing-lists")
	mailingLists.Get("/", r.handlers.MailingList.ListMailingLists)
	mailingLists.Post("/", r.handlers.MailingList.CreateMailingList)
	mailingLists.Get("/:uuid", r.handlers.MailingList.GetMailingList)

	templates := api.Group("/message-templates")
	templates.Get("/", r.handlers.Template.ListTemplates)
	templates.Get("/:uuid", r.handlers.Template.GetTemplate)

	r.app.Use(r.notFoundHandler)
}

// Start begins listening on the given address
func (r *FiberRouter) Start(address string) error {
	return r.app.Listen(address)
}

// GetApp returns the underlying Fiber app
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.cfg.Security.CORSAllowedOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
		},
		MaxAge: utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(appmiddleware.Metrics())
	}

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	database := "ok"
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err != nil || sqlDB.Ping() != nil {
			database = "unreachable"
		}
	} else {
		database = "not configured"
	}

	cache := "not configured"
	if r.redisClient != nil {
		cache = "ok"
		if err := r.redisClient.Ping(c.Context()).Err(); err != nil {
			cache = "unreachable"
		}
	}

	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: dto.HealthResponse{
			Status:    "ok",
			Timestamp: utils.UTCNow(),
			Database:  database,
			Cache:     cache,
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: &dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: &dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
