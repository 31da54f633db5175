package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/chatkeep/orchestator"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/agentx"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx/memoryinfra"
	"github.com/Abraxas-365/chatkeep/pkg/ai/llm/memoryx/memorysrv"
	"github.com/Abraxas-365/chatkeep/pkg/ai/providers"
	"github.com/Abraxas-365/chatkeep/pkg/authx"
	"github.com/Abraxas-365/chatkeep/pkg/config"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	initLogger(cfg)

	logx.Info("🚀 Starting chatkeep server...")
	logx.Infof("Environment: %s", cfg.Server.Environment)

	// 3. Initialize Core Dependencies
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := memoryinfra.Open(ctx, cfg.Store)
	cancel()
	if err != nil {
		logx.Fatalf("❌ Failed to open session store: %v", err)
	}
	defer repo.Close()
	logx.Infof("✅ Session store ready (backend: %s)", cfg.Store.Backend)

	llmClient, err := providers.NewClient(cfg.LLM)
	if err != nil {
		logx.Fatalf("❌ Failed to create LLM client: %v", err)
	}

	sessionService := memorysrv.NewSessionService(repo)
	orch := orchestator.NewOrchestrator(orchestator.Config{
		Agent:          agentx.New(llmClient, sessionService),
		SessionService: sessionService,
		Provider:       cfg.LLM.Provider,
		Backend:        cfg.Store.Backend,
	})

	// 4. Create Fiber App
	app := fiber.New(fiber.Config{
		AppName:               "chatkeep",
		DisableStartupMessage: true,
		ErrorHandler:          orchestator.ErrorHandler(cfg.IsDevelopment()),
		BodyLimit:             1 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	// 5. Middleware
	setupMiddleware(app, cfg)

	// 6. Routes
	var auth fiber.Handler
	if cfg.Auth.JWTSecret != "" {
		auth = authx.Middleware(authx.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
		logx.Info("🔐 Bearer token authentication enabled")
	} else {
		logx.Warn("⚠️ auth.jwt_secret not set. API is unauthenticated.")
	}
	orchestator.RegisterRoutes(app, orch, auth)

	// 7. Start Server
	startServer(app, cfg)
}

func initLogger(cfg *config.Config) {
	if cfg.IsDevelopment() {
		logx.SetPretty(os.Stderr)
	}
	logx.SetLevel(logx.ParseLevel(cfg.Server.LogLevel))

	logx.WithField("level", cfg.Server.LogLevel).Info("Logger initialized")
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
}

func startServer(app *fiber.App, cfg *config.Config) {
	port := fmt.Sprintf("%d", cfg.Server.Port)

	go func() {
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("📡 Health check: http://localhost:%s/health", port)
		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logx.Info("🛑 Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited gracefully")
}
