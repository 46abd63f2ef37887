package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ideareel/api/docs"
	"github.com/ideareel/api/internal/client"
	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/handler"
	"github.com/ideareel/api/internal/middleware"
	"github.com/ideareel/api/internal/service"
	"github.com/ideareel/api/internal/worker"
	ws "github.com/ideareel/api/internal/websocket"
)

// @title          IdeaReel API
// @version        1.0
// @description    Backend API for IdeaReel, an AI-powered idea-to-video generation pipeline.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
// @description    Enter your bearer token in the format **Bearer &lt;token&gt;**
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Configure Swagger host/scheme based on environment
	if cfg.Server.ApiDomain != "" {
		docs.SwaggerInfo.Host = cfg.Server.ApiDomain
		docs.SwaggerInfo.Schemes = []string{"https"}
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
		docs.SwaggerInfo.Schemes = []string{"http"}
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize the generation client (mock mode skips the real provider)
	var generator client.MediaGenerator
	if cfg.GenAI.Mock {
		log.Println("Info: GenAI mock mode enabled, provider calls are simulated")
		generator = client.NewMockGenerator()
	} else {
		generator = client.NewGenAIClient(&cfg.GenAI)
	}

	// Initialize R2 client (optional - continues if not configured)
	var r2Client *client.R2Client
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		var err error
		r2Client, err = client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		}
	} else {
		log.Println("Info: R2 storage not configured, media is returned inline")
	}

	// Initialize services
	credentialService := service.NewCredentialService(redisClient)
	pipelineService := service.NewPipelineService(redisClient, asynqClient)
	projectService := service.NewProjectService(redisClient)
	characterService := service.NewCharacterService(generator)
	var store client.StorageClient
	if r2Client != nil {
		store = r2Client
	}
	batch := service.NewBatchOrchestrator(generator, store)

	// Initialize handlers
	pipelineHandler := handler.NewPipelineHandler(pipelineService, validate)
	credentialsHandler := handler.NewCredentialsHandler(credentialService, validate)
	projectHandler := handler.NewProjectHandler(projectService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"genai": !cfg.GenAI.Mock,
				"r2":    r2Client != nil,
				"auth":  cfg.JWT.Secret != "",
			},
		})
	})

	// Swagger UI
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	// Credential routes
	credentials := api.Group("/credentials")
	credentials.Post("/", credentialsHandler.Save)
	credentials.Get("/", credentialsHandler.Status)
	credentials.Delete("/", credentialsHandler.Delete)

	// Pipeline routes
	pipeline := api.Group("/pipeline")
	pipeline.Post("/start", rateLimiter.PipelineLimit(cfg.RateLimit.PipelinePerHour), pipelineHandler.Start)
	pipeline.Get("/status/:jobId", pipelineHandler.Status)
	pipeline.Get("/result/:jobId", pipelineHandler.Result)
	pipeline.Get("/review/:jobId", pipelineHandler.Review)
	pipeline.Post("/approve/:jobId", pipelineHandler.Approve)
	pipeline.Post("/scene/:jobId/:sceneId/regenerate", pipelineHandler.RegenerateScene)
	pipeline.Post("/cancel/:jobId", pipelineHandler.Cancel)

	// Project routes
	projects := api.Group("/projects", rateLimiter.ProjectLimit(cfg.RateLimit.ProjectPerMin))
	projects.Get("/", projectHandler.List)
	projects.Post("/", projectHandler.Create)
	projects.Get("/:projectId", projectHandler.Get)
	projects.Put("/:projectId", projectHandler.Update)
	projects.Delete("/:projectId", projectHandler.Delete)

	// Form state routes
	form := api.Group("/form")
	form.Get("/last", projectHandler.GetFormState)
	form.Put("/last", projectHandler.SaveFormState)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, pipelineService, credentialService, projectService, characterService, batch, generator, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	pipelineService *service.PipelineService,
	credentialService *service.CredentialService,
	projectService *service.ProjectService,
	characterService *service.CharacterService,
	batch *service.BatchOrchestrator,
	generator client.MediaGenerator,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"pipeline": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	pipelineWorker := worker.NewPipelineWorker(
		pipelineService,
		credentialService,
		projectService,
		characterService,
		batch,
		generator,
		&cfg.GenAI,
		hub,
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypePipeline, pipelineWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypePipelineResume, pipelineWorker.ProcessResumeTask)
	mux.HandleFunc(service.TaskTypeSceneRegen, pipelineWorker.ProcessSceneRegenTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
