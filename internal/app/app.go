package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/controller"
	"learnsphere_backend/internal/event"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/service"
	"learnsphere_backend/pkg/database"
	"learnsphere_backend/pkg/logger"
	"learnsphere_backend/pkg/monitoring"
	"learnsphere_backend/pkg/security"
	"learnsphere_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Bus    *event.Bus
}

type repositories struct {
	user           *repository.UserRepository
	question       *repository.QuestionRepository
	course         *repository.CourseRepository
	lesson         *repository.LessonRepository
	progress       *repository.ProgressRepository
	assessment     *repository.AssessmentRepository
	learningPath   *repository.LearningPathRepository
	recommendation *repository.RecommendationRepository
	exam           *repository.ExamRepository
	certificate    *repository.CertificateRepository
}

type services struct {
	auth           *service.AuthService
	user           *service.UserService
	storage        *service.StorageService
	course         *service.CourseService
	assessment     *service.AssessmentService
	learningPath   *service.LearningPathService
	recommendation *service.RecommendationService
	certification  *service.CertificationService
}

type controllers struct {
	auth          *controller.AuthController
	user          *controller.UserController
	course        *controller.CourseController
	assessment    *controller.AssessmentController
	learningPath  *controller.LearningPathController
	certification *controller.CertificationController
	health        *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:           repository.NewUserRepository(db),
		question:       repository.NewQuestionRepository(db),
		course:         repository.NewCourseRepository(db),
		lesson:         repository.NewLessonRepository(db),
		progress:       repository.NewProgressRepository(db),
		assessment:     repository.NewAssessmentRepository(db),
		learningPath:   repository.NewLearningPathRepository(db),
		recommendation: repository.NewRecommendationRepository(db),
		exam:           repository.NewExamRepository(db),
		certificate:    repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client, bus *event.Bus) (*services, error) {
	storage, err := service.NewStorageService(cfg.Storage)
	if err != nil {
		return nil, err
	}

	s := &services{storage: storage}

	s.auth = service.NewAuthService(repos.user, cfg.JWT, bus)
	s.user = service.NewUserService(repos.user)
	s.course = service.NewCourseService(repos.course, repos.lesson, repos.progress)
	s.assessment = service.NewAssessmentService(repos.question, repos.assessment, repos.user, rdb, cfg.Engine, bus)
	s.learningPath = service.NewLearningPathService(
		repos.learningPath,
		repos.course,
		repos.lesson,
		repos.progress,
		repos.assessment,
		repos.user,
		cfg.Engine,
		bus,
	)
	s.recommendation = service.NewRecommendationService(
		repos.recommendation,
		repos.learningPath,
		repos.lesson,
		repos.course,
		repos.progress,
		repos.assessment,
		repos.user,
		cfg.Engine,
	)
	s.certification = service.NewCertificationService(
		repos.exam,
		repos.certificate,
		repos.course,
		repos.lesson,
		repos.progress,
		repos.question,
		repos.user,
		cfg.Engine,
	)

	// 推荐组件订阅领域事件
	s.recommendation.RegisterHandlers(bus)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:          controller.NewAuthController(s.auth),
		user:          controller.NewUserController(s.user, s.storage),
		course:        controller.NewCourseController(s.course),
		assessment:    controller.NewAssessmentController(s.assessment),
		learningPath:  controller.NewLearningPathController(s.learningPath, s.recommendation),
		certification: controller.NewCertificationController(s.certification),
		health:        controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	bus := event.NewBus(logger.Log)

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Bus:    bus,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb, bus)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("learnsphere", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
