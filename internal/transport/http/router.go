package http

import (
	"strings"

	"github.com/followup/backend/internal/config"
	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/core/services"
	"github.com/followup/backend/internal/infrastructure/db"
	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/followup/backend/internal/infrastructure/sysstats"
	"github.com/followup/backend/internal/realtime"
	"github.com/followup/backend/internal/transport/http/handlers"
	httpmw "github.com/followup/backend/internal/transport/http/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Paths accepting task creation. The functions path matches what existing
// dashboard clients call.
var createTaskPaths = []string{"/functions/v1/create-task", "/api/v1/tasks"}

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
	Hub    *realtime.Hub
	// Transport overrides the broadcast transport derived from Config.Realtime.
	Transport ports.BroadcastTransport
	Clock     ports.Clock
}

// NewApp builds the fiber app with the global middleware stack. CORS runs
// first so preflight requests never reach business handlers.
func NewApp(cfg *config.Config, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          globalErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Auth.AllowedOrigins, ","),
		AllowHeaders: strings.Join(cfg.Auth.AllowedHeaders, ", "),
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(httpmw.RequestID(cfg.Features.RequestIDHeader))

	if cfg.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(log))
	}

	return app
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) error {
	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}

	// Initialize repositories
	applicationRepo := db.NewApplicationRepository(cfg.DB, cfg.Logger)
	taskRepo := db.NewTaskRepository(cfg.DB, cfg.Logger)

	// Initialize services
	resolver := services.NewTenantResolver(applicationRepo, cfg.Logger)
	notifier := services.NewNotifier(services.NotifierConfig{
		Transport:    transport,
		Channel:      cfg.Config.Realtime.Channel,
		ReadyTimeout: cfg.Config.Realtime.ReadyTimeout,
		Logger:       cfg.Logger,
	})
	taskService := services.NewTaskService(services.TaskServiceConfig{
		Resolver:    resolver,
		TaskRepo:    taskRepo,
		Notifier:    notifier,
		Logger:      cfg.Logger,
		Clock:       cfg.Clock,
		AsyncNotify: cfg.Config.Realtime.AsyncNotify,
	})

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Logger)
	realtimeHandler := handlers.NewRealtimeHandler(cfg.Hub, cfg.Logger)
	healthHandler := handlers.NewHealthHandler(sysstats.NewCollector())

	app.Get("/health", healthHandler.Health)

	// Realtime websocket
	app.Use("/realtime", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/realtime/v1/websocket", websocket.New(realtimeHandler.Handle))

	// Task creation: POST only, bare OPTIONS answered, everything else 405.
	for _, path := range createTaskPaths {
		app.Post(path, taskHandler.CreateTask)
		app.Options(path, taskHandler.Preflight)
		app.All(path, taskHandler.MethodNotAllowed)
	}

	// Dashboard routes
	app.Get("/api/v1/tasks/today", httpmw.AdminAuth(cfg.Config), taskHandler.GetTodayTasks)
	app.Patch("/api/v1/tasks/:id/complete", httpmw.AdminAuth(cfg.Config), taskHandler.CompleteTask)

	return nil
}

func newTransport(cfg RouterConfig) (ports.BroadcastTransport, error) {
	if cfg.Transport != nil {
		return cfg.Transport, nil
	}
	rt := cfg.Config.Realtime
	if rt.Mode == "remote" {
		return realtime.NewClient(realtime.ClientConfig{
			URL:              rt.URL,
			Encoding:         rt.Encoding,
			HandshakeTimeout: rt.ReadyTimeout,
			Logger:           cfg.Logger,
		})
	}
	return realtime.NewLocalTransport(cfg.Hub), nil
}
