package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ideareel/api/internal/auth"
	"github.com/ideareel/api/internal/client"
	"github.com/ideareel/api/internal/config"
	"github.com/ideareel/api/internal/handler"
	"github.com/ideareel/api/internal/middleware"
	"github.com/ideareel/api/internal/service"
	"github.com/ideareel/api/internal/worker"
	ws "github.com/ideareel/api/internal/websocket"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
}

// testGenAIConfig returns provider pacing suitable for tests: mock client,
// zero inter-request delays, fast polling.
func testGenAIConfig() *config.GenAIConfig {
	return &config.GenAIConfig{
		Mock:         true,
		PollInterval: time.Millisecond,
		MaxPolls:     3,
	}
}

// setupApp creates a Fiber app identical to main.go but backed by the mock
// generator and no object storage, plus a running worker server so queued
// pipeline runs actually execute.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — must be running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	redisOpt := asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	}
	asynqClient := asynq.NewClient(redisOpt)
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	genCfg := testGenAIConfig()
	generator := client.NewMockGenerator()

	// Services (nil storage → inline data URLs)
	credentialService := service.NewCredentialService(redisClient)
	pipelineService := service.NewPipelineService(redisClient, asynqClient)
	projectService := service.NewProjectService(redisClient)
	characterService := service.NewCharacterService(generator)
	batch := service.NewBatchOrchestrator(generator, nil)

	// Handlers
	pipelineHandler := handler.NewPipelineHandler(pipelineService, validate)
	credentialsHandler := handler.NewCredentialsHandler(credentialService, validate)
	projectHandler := handler.NewProjectHandler(projectService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"genai": false,
				"r2":    false,
				"auth":  true,
			},
		})
	})

	// API routes (authenticated)
	api := app.Group("/api", authMiddleware.Authenticate())

	credentials := api.Group("/credentials")
	credentials.Post("/", credentialsHandler.Save)
	credentials.Get("/", credentialsHandler.Status)
	credentials.Delete("/", credentialsHandler.Delete)

	// Use very high rate limits so tests don't get blocked
	pipeline := api.Group("/pipeline")
	pipeline.Post("/start", rateLimiter.PipelineLimit(10000), pipelineHandler.Start)
	pipeline.Get("/status/:jobId", pipelineHandler.Status)
	pipeline.Get("/result/:jobId", pipelineHandler.Result)
	pipeline.Get("/review/:jobId", pipelineHandler.Review)
	pipeline.Post("/approve/:jobId", pipelineHandler.Approve)
	pipeline.Post("/scene/:jobId/:sceneId/regenerate", pipelineHandler.RegenerateScene)
	pipeline.Post("/cancel/:jobId", pipelineHandler.Cancel)

	projects := api.Group("/projects", rateLimiter.ProjectLimit(10000))
	projects.Get("/", projectHandler.List)
	projects.Post("/", projectHandler.Create)
	projects.Get("/:projectId", projectHandler.Get)
	projects.Put("/:projectId", projectHandler.Update)
	projects.Delete("/:projectId", projectHandler.Delete)

	form := api.Group("/form")
	form.Get("/last", projectHandler.GetFormState)
	form.Put("/last", projectHandler.SaveFormState)

	// Worker server so queued runs execute against the mock generator
	pipelineWorker := worker.NewPipelineWorker(
		pipelineService,
		credentialService,
		projectService,
		characterService,
		batch,
		generator,
		genCfg,
		hub,
	)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{"pipeline": 2},
		LogLevel:    asynq.ErrorLevel,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypePipeline, pipelineWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypePipelineResume, pipelineWorker.ProcessResumeTask)
	mux.HandleFunc(service.TaskTypeSceneRegen, pipelineWorker.ProcessSceneRegenTask)

	if err := srv.Start(mux); err != nil {
		t.Fatalf("failed to start worker server: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	return &testApp{app: app}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "ideareel-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// saveTestCredentials stores an API key for the test user so runs can start.
func saveTestCredentials(t *testing.T, app *fiber.App) {
	t.Helper()
	resp, err := doAuthRequest(t, app, http.MethodPost, "/api/credentials", `{"apiKey": "test-api-key-1234567890"}`)
	if err != nil {
		t.Fatalf("failed to save credentials: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	readBody(t, resp)
}

// waitForStatus polls a job until it reaches one of the wanted statuses.
func waitForStatus(t *testing.T, app *fiber.App, jobID string, deadline time.Duration, wanted ...string) map[string]interface{} {
	t.Helper()
	end := time.Now().Add(deadline)
	var last map[string]interface{}
	for time.Now().Before(end) {
		resp, err := doAuthRequest(t, app, http.MethodGet, "/api/pipeline/status/"+jobID, "")
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		last = parseJSON(t, resp)
		status, _ := last["status"].(string)
		for _, w := range wanted {
			if status == w {
				return last
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %v, last state: %v", jobID, wanted, last)
	return nil
}
