package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/diagnostic-api/internal/config"
	"github.com/yourusername/diagnostic-api/internal/handler"
	"github.com/yourusername/diagnostic-api/internal/middleware"
	pgRepo "github.com/yourusername/diagnostic-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/diagnostic-api/internal/repository/redis"
	"github.com/yourusername/diagnostic-api/internal/service"
	"github.com/yourusername/diagnostic-api/internal/service/scoring"
	ws "github.com/yourusername/diagnostic-api/internal/websocket"
	"github.com/yourusername/diagnostic-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	runRepo := pgRepo.NewRunRepo(db)
	areaRepo := pgRepo.NewRunAreaRepo(db)
	mcqRepo := pgRepo.NewMCQRepo(db)
	clarifierRepo := pgRepo.NewClarifierRepo(db)
	assessmentRepo := pgRepo.NewAssessmentRepo(db)
	recommendationRepo := pgRepo.NewRecommendationRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Выбираем оценщика по конфигурации.
	// noop предназначен для локальной разработки без API-ключа.
	var evaluator service.Evaluator
	switch cfg.Evaluator.Provider {
	case "noop":
		log.Println("ВНИМАНИЕ: используется noop-оценщик, результаты оценки детерминированы и не имеют диагностической ценности")
		evaluator = &service.NoopEvaluator{}
	default:
		evaluator, err = service.NewOpenAIEvaluator(cfg.Evaluator)
		if err != nil {
			log.Printf("Failed to initialize evaluator: %v", err)
			os.Exit(1)
		}
	}

	// Настройки конвейера оценки из конфигурации
	scoringCfg := &scoring.Config{
		MCQWeight:            cfg.Scoring.MCQWeight,
		ClarifierWeight:      cfg.Scoring.ClarifierWeight,
		MCQStrengthThreshold: cfg.Scoring.MCQStrengthThreshold,
		MaturityThreshold:    cfg.Scoring.MaturityThreshold,
		HighPriorityCutoff:   cfg.Scoring.HighPriorityCutoff,
		MediumPriorityCutoff: cfg.Scoring.MediumPriorityCutoff,
	}

	// Инициализация WebSocket-менеджера событий областей
	wsManager := ws.NewManager()

	// Инициализируем сервисы
	runService := service.NewRunService(runRepo, areaRepo, assessmentRepo)
	areaService := service.NewAreaService(areaRepo, mcqRepo, cacheRepo, wsManager)
	clarifierService := service.NewClarifierService(areaRepo, runRepo, mcqRepo, clarifierRepo, evaluator, wsManager)
	recommendationService := service.NewRecommendationService(recommendationRepo, scoringCfg)
	assessmentService := service.NewAssessmentService(
		areaRepo,
		clarifierRepo,
		assessmentRepo,
		clarifierService,
		recommendationService,
		evaluator,
		scoringCfg,
		wsManager,
	)

	// Инициализируем обработчики
	runHandler := handler.NewRunHandler(runService)
	areaHandler := handler.NewAreaHandler(areaService, clarifierService, assessmentService, recommendationService)
	wsHandler := handler.NewWSHandler(wsManager)

	// Rate limiting: общий лимит по IP на весь API плюс строгий лимит
	// на endpoints, обращающиеся к внешнему оценщику
	rateLimiter := middleware.NewRateLimiter(redisClient)
	apiLimit := rateLimiter.LimitByIP(middleware.DefaultAPIRateLimitConfig())
	evaluatorLimit := rateLimiter.Limit(middleware.EvaluatorRateLimitConfig(cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSec))

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production (GIN_MODE=release): не доверяем прокси (защита от IP spoofing)
	// В development: доверяем localhost
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(apiLimit)
	{
		// Прогоны диагностики
		runs := api.Group("/runs")
		{
			runs.POST("", runHandler.CreateRun)

			// Группа маршрутов, требующих run_id
			runWithID := runs.Group("/:run_id")
			runWithID.Use(middleware.ExtractUUIDParam("run_id", "runID")) // Применяем middleware
			{
				runWithID.GET("", runHandler.GetRun)
				runWithID.GET("/areas", runHandler.GetAreas)
				runWithID.GET("/export", runHandler.ExportAssessments)
			}
		}

		// Области диагностики
		areas := api.Group("/areas/:area_id")
		areas.Use(middleware.ExtractUUIDParam("area_id", "areaID"))
		{
			areas.GET("", areaHandler.GetArea)
			areas.POST("/mcq-answers", areaHandler.SubmitMCQAnswers)
			areas.GET("/clarifiers", areaHandler.GetClarifiers)
			areas.POST("/lock", areaHandler.LockArea)
			areas.GET("/assessment", areaHandler.GetAssessment)
			areas.GET("/recommendations", areaHandler.GetRecommendations)

			// Endpoints с вызовом внешнего оценщика — под rate limiter
			areas.POST("/clarifiers/core", evaluatorLimit, areaHandler.GenerateCoreClarifiers)
			areas.POST("/clarifiers/followup", evaluatorLimit, areaHandler.GenerateFollowupClarifiers)
			areas.POST("/score", evaluatorLimit, areaHandler.ScoreArea)
		}

		// Ответы на уточняющие вопросы
		clarifiers := api.Group("/clarifiers/:question_id")
		clarifiers.Use(middleware.ExtractUUIDParam("question_id", "questionID"))
		{
			clarifiers.POST("/answer", areaHandler.SaveClarifierAnswer)
		}
	}

	// WebSocket маршрут: события статусов областей прогона
	wsGroup := router.Group("/ws/runs/:run_id")
	wsGroup.Use(middleware.ExtractUUIDParam("run_id", "runID"))
	{
		wsGroup.GET("", wsHandler.Subscribe)
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM останавливаем сервер
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
