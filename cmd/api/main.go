// @title QuizForge API
// @version 1.0
// @description Backend for generated, editable quizzes with full mutation history and revert.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizforge/internal/adapter"
	"quizforge/internal/adapter/llm"
	"quizforge/internal/adapter/retrieval"
	"quizforge/internal/cache"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/genai"
	"quizforge/internal/handler"
	"quizforge/internal/logger"
	"quizforge/internal/middleware"
	"quizforge/internal/repository"
	"quizforge/internal/service"
	"quizforge/internal/util"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger logs every HTTP request with a per-request ULID.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := util.NewULID()
		c.Locals("requestID", requestID)

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
		)
		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	db, err := repository.NewSQLiteDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis is optional; without it embedding lookups hit the provider every
	// time.
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("RedisCacheAdapter initialized")
	} else {
		appLogger.Warn("Redis address not configured, embedding cache disabled")
	}

	// Repositories
	quizRepository := repository.NewQuizDatabaseAdapter(db)
	projectRepository := repository.NewProjectDatabaseAdapter(db)
	documentRepository := repository.NewDocumentDatabaseAdapter(db)
	historyRepository := repository.NewHistoryDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Generation pipeline
	generator, err := llm.NewOpenAIGenerator(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	retriever, err := retrieval.NewEmbeddingRetriever(cfg.LLM.APIKey, cfg.Embedding.Model, documentRepository, cacheAdapter)
	if err != nil {
		appLogger.Fatal("Failed to create embedding retriever", zap.Error(err))
	}
	orchestrator := genai.NewOrchestrator(
		generator,
		retriever,
		genai.NewPromptBuilder(""),
		cfg.Generation.DocumentCharBudget,
		cfg.Generation.RetryCharBudget,
		cfg.Generation.RetrievalTopK,
	)
	appLogger.Info("Generation pipeline initialized", zap.String("model", cfg.LLM.Model))

	// Services
	quizService := service.NewQuizService(quizRepository, documentRepository, historyRepository, txManager, orchestrator, cfg)
	questionService := service.NewQuestionService(quizRepository, historyRepository, txManager, orchestrator)
	projectService := service.NewProjectService(projectRepository, quizRepository, historyRepository, txManager)
	historyService := service.NewHistoryService(historyRepository, quizRepository, projectRepository, txManager)

	// Handlers
	validator := validation.NewValidator()
	quizHandler := handler.NewQuizHandler(quizService, validator)
	questionHandler := handler.NewQuestionHandler(questionService, validator)
	projectHandler := handler.NewProjectHandler(projectService, validator)
	historyHandler := handler.NewHistoryHandler(historyService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	apiGroup := app.Group("/api", middleware.Protected(cfg.Auth.JWTSecret))

	quizGroup := apiGroup.Group("/quizzes")
	quizGroup.Post("/", quizHandler.CreateQuiz)
	quizGroup.Get("/", quizHandler.ListQuizzes)
	quizGroup.Get("/:id", quizHandler.GetQuiz)
	quizGroup.Put("/:id", quizHandler.UpdateQuiz)
	quizGroup.Delete("/:id", quizHandler.DeleteQuiz)
	quizGroup.Post("/:id/regenerate", quizHandler.RegenerateQuiz)
	quizGroup.Post("/:id/questions", questionHandler.AddQuestion)
	quizGroup.Get("/:id/history", historyHandler.ListQuizHistory)
	quizGroup.Post("/:id/revert", historyHandler.RevertQuiz)

	questionGroup := apiGroup.Group("/questions")
	questionGroup.Put("/:id", questionHandler.UpdateQuestion)
	questionGroup.Delete("/:id", questionHandler.DeleteQuestion)
	questionGroup.Post("/:id/regenerate", questionHandler.RegenerateQuestion)
	questionGroup.Post("/:id/type", questionHandler.ChangeQuestionType)
	questionGroup.Get("/:id/history", historyHandler.ListQuestionHistory)
	questionGroup.Post("/:id/revert", historyHandler.RevertQuestion)

	projectGroup := apiGroup.Group("/projects")
	projectGroup.Post("/", projectHandler.CreateProject)
	projectGroup.Get("/", projectHandler.ListProjects)
	projectGroup.Get("/:id", projectHandler.GetProject)
	projectGroup.Put("/:id", projectHandler.UpdateProject)
	projectGroup.Delete("/:id", projectHandler.DeleteProject)
	projectGroup.Post("/:id/quizzes", projectHandler.AddQuiz)
	projectGroup.Put("/:id/quizzes/order", projectHandler.ReorderQuizzes)
	projectGroup.Delete("/:id/quizzes/:quizId", projectHandler.RemoveQuiz)
	projectGroup.Get("/:id/history", historyHandler.ListProjectHistory)
	projectGroup.Post("/:id/revert", historyHandler.RevertProject)

	apiGroup.Get("/activity", historyHandler.ActivityLog)

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		appLogger.Info("Starting server", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server stopped unexpectedly", zap.Error(err))
		}
	}()

	<-shutdown
	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
