package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/stars-api/api/swagger"
	"github.com/noah-isme/stars-api/internal/handler"
	"github.com/noah-isme/stars-api/internal/middleware"
	"github.com/noah-isme/stars-api/internal/models"
	"github.com/noah-isme/stars-api/internal/registration"
	"github.com/noah-isme/stars-api/internal/repository"
	"github.com/noah-isme/stars-api/internal/service"
	"github.com/noah-isme/stars-api/pkg/cache"
	"github.com/noah-isme/stars-api/pkg/config"
	"github.com/noah-isme/stars-api/pkg/database"
	"github.com/noah-isme/stars-api/pkg/jobs"
	"github.com/noah-isme/stars-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/stars-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/stars-api/pkg/middleware/requestid"
)

// @title STARS API
// @version 1.0.0
// @description Course registration engine with waitlists, credit ceilings and timetable clash reporting
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, vacancy caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	sectionRepo := repository.NewSectionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	credRepo := repository.NewCredentialRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Registration.CacheTTL, logr)
	}

	authSvc := service.NewAuthService(credRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	notifySvc := service.NewNotificationService(
		&service.LogEmailSender{Logger: logr},
		&service.LogSMSSender{Logger: logr},
		metricsSvc, logr,
		jobs.QueueConfig{
			Workers:    cfg.Notify.Workers,
			BufferSize: cfg.Notify.BufferSize,
			MaxRetries: cfg.Notify.MaxRetries,
			RetryDelay: cfg.Notify.RetryDelay,
		},
	)

	engine := registration.NewEngine(sectionRepo, studentRepo, regRepo, notifySvc, authSvc, logr, cfg.Registration.MaxCreditLoad)
	notifySvc.SetDirectory(engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hydrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := engine.Hydrate(hydrateCtx); err != nil {
		cancel()
		logr.Fatal("failed to hydrate registration engine", zap.Error(err))
	}
	cancel()

	notifySvc.Start(ctx)
	defer notifySvc.Stop()

	regSvc := service.NewRegistrationService(engine, cacheSvc, metricsSvc, validate, logr)
	sectionSvc := service.NewSectionService(engine, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(engine, authSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	regHandler := handler.NewRegistrationHandler(regSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, notifySvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg.APIPrefix, authSvc, authHandler, regHandler, sectionHandler, studentHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func registerRoutes(r *gin.Engine, prefix string, authSvc *service.AuthService,
	authHandler *handler.AuthHandler, regHandler *handler.RegistrationHandler,
	sectionHandler *handler.SectionHandler, studentHandler *handler.StudentHandler) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/registrations", regHandler.Add)
	protected.POST("/registrations/drop", regHandler.Drop)
	protected.POST("/registrations/change-index", regHandler.ChangeIndex)
	protected.POST("/registrations/swap", regHandler.Swap)

	protected.GET("/sections", sectionHandler.List)
	protected.GET("/sections/:courseCode/:index", sectionHandler.Get)
	protected.GET("/sections/:courseCode/:index/vacancy", sectionHandler.Vacancy)
	protected.GET("/courses/:courseCode/vacancies", sectionHandler.CourseVacancies)

	protected.GET("/students/:matricNo", studentHandler.Get)
	protected.PUT("/students/:matricNo/contact", studentHandler.SetContact)
	protected.GET("/students/:matricNo/courses", studentHandler.Courses)
	protected.GET("/students/:matricNo/timetable", studentHandler.Timetable)
	protected.GET("/students/:matricNo/timetable/export", studentHandler.ExportTimetable)
	protected.GET("/students/:matricNo/notifications", studentHandler.Notifications)

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRole(models.RoleAdmin))

	admin.POST("/sections", sectionHandler.Create)
	admin.PUT("/sections/:courseCode/:index", sectionHandler.Update)
	admin.GET("/sections/:courseCode/:index/roster", sectionHandler.Roster)
	admin.GET("/sections/:courseCode/:index/roster/export", sectionHandler.ExportRoster)
	admin.GET("/sections/:courseCode/:index/waitlist", sectionHandler.Waitlist)
	admin.POST("/students", studentHandler.Create)
	admin.GET("/students", studentHandler.List)
}
