package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hirestack/resume-screener/internal/config"
	"github.com/hirestack/resume-screener/internal/domain/fiber/handler"
	"github.com/hirestack/resume-screener/internal/export"
	"github.com/hirestack/resume-screener/internal/extractor"
	"github.com/hirestack/resume-screener/internal/middleware"
	"github.com/hirestack/resume-screener/internal/model"
	"github.com/hirestack/resume-screener/internal/repository"
	"github.com/hirestack/resume-screener/internal/retrieval"
	"github.com/hirestack/resume-screener/internal/service"
	"github.com/hirestack/resume-screener/internal/usecase"
	"github.com/hirestack/resume-screener/internal/util"
	"github.com/hirestack/resume-screener/internal/worker"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		fmt.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	screeningConfig := config.LoadScreeningConfig()

	zlog, err := newLogger(appConfig.Env)
	if err != nil {
		fmt.Println("could not build logger:", err)
		os.Exit(1)
	}
	defer zlog.Sync() //nolint:errcheck

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env == "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := connectDB(zlog)

	taskRepo := repository.NewScreeningTaskRepository(db)
	documentRepo := repository.NewReferenceDocumentRepository(db)

	gemini, err := service.NewGeminiService(ctx, zlog)
	if err != nil {
		zlog.Fatal("could not create gemini service", zap.Error(err))
	}
	openRouter := service.NewOpenRouterService(zlog)

	index := retrieval.NewIndex(gemini, documentRepo, zlog)
	documents, err := loadReferenceDocuments(screeningConfig.ReferenceDocsDir)
	if err != nil {
		zlog.Fatal("could not load reference documents", zap.Error(err))
	}
	if err := index.Build(ctx, documents); err != nil {
		zlog.Fatal("could not build retrieval index", zap.Error(err))
	}

	pool := worker.NewPool(screeningConfig.Workers, screeningConfig.QueueSize, zlog)
	pool.Start()

	uc := usecase.NewScreeningUsecase(
		taskRepo,
		pool,
		extractor.NewCandidateExtractor(openRouter, zlog),
		extractor.NewSkillExtractor(index, openRouter, zlog),
		util.ExtractPDFText,
		screeningConfig,
		zlog,
	)
	exporter := export.NewService(taskRepo, zlog)

	h := handler.NewScreeningHandler(uc, exporter, taskRepo)
	h.RegisterRoutes(app)

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			zlog.Info("queue status", zap.Int("depth", pool.QueueDepth()))
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		zlog.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			zlog.Error("server shutdown failed", zap.Error(err))
		}

		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := pool.Stop(drainCtx); err != nil {
			zlog.Error("worker pool drain timed out", zap.Error(err))
		}
	}()

	zlog.Info("server running", zap.String("port", appConfig.Port))
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func connectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zlog.Fatal("could not connect to database", zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		zlog.Fatal("could not create vector extension", zap.Error(err))
	}

	if err := db.AutoMigrate(&model.ScreeningTask{}, &model.ReferenceDocument{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	return db
}

// loadReferenceDocuments reads every .txt file in dir as one corpus
// document (job description, hiring policy, ...).
func loadReferenceDocuments(dir string) ([]retrieval.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reference docs dir: %w", err)
	}

	var documents []retrieval.Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read reference doc %s: %w", entry.Name(), err)
		}
		documents = append(documents, retrieval.Document{
			Title:   strings.TrimSuffix(entry.Name(), ".txt"),
			Content: string(content),
		})
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("no reference documents found in %s", dir)
	}
	return documents, nil
}
