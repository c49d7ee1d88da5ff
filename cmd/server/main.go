package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helmet-detector-go/internal/client"
	"helmet-detector-go/internal/config"
	"helmet-detector-go/internal/database"
	"helmet-detector-go/internal/detection"
	"helmet-detector-go/internal/handler"
	"helmet-detector-go/internal/repository"
	"helmet-detector-go/internal/server"
	"helmet-detector-go/internal/service"
	"helmet-detector-go/internal/storage"
	"helmet-detector-go/internal/video"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем логгер
	logger := newLogger(cfg)
	logger.Info("Запуск Helmet Detector API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("Сервер остановлен с ошибкой: %v", err)
	}
	logger.Info("Сервер остановлен")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	// Каталоги для загрузок и результатов
	artifacts, err := storage.NewArtifactWriter(cfg.Storage.StaticDir, cfg.Storage.UploadDir, cfg.Storage.ResultDir, logger)
	if err != nil {
		return err
	}

	// Клиент сервиса с моделью
	timeout := time.Duration(cfg.Detection.Timeout) * time.Second
	modelClient := client.NewPythonAPIClient(cfg.Detection.ServiceURL, timeout, logger)

	annotator, err := detection.NewAnnotator(cfg.Detection.LineWidth, cfg.Detection.FontSize)
	if err != nil {
		return fmt.Errorf("failed to create annotator: %w", err)
	}
	adapter := detection.NewAdapter(modelClient, cfg.Detection.ConfidenceThreshold, annotator, logger)

	transcoder := video.NewTranscoder(cfg.Transcoder.VideoCodec, cfg.Transcoder.PixelFormat, logger)
	prober := video.NewProber(logger)

	pipeline := service.NewPipeline(adapter, transcoder, prober, artifacts, cfg.Detection.SampleFrames, logger)

	// История загрузок (опционально)
	var db *gorm.DB
	var history *service.HistoryService
	if cfg.Database.Enabled {
		logger.Info("Подключение к базе данных...")
		db, err = database.Connect(cfg.DSN(), logger)
		if err != nil {
			return err
		}
		defer database.Close(db)

		logger.Info("Выполнение миграций базы данных...")
		if err := database.Migrate(db); err != nil {
			return err
		}

		history = service.NewHistoryService(repository.NewUploadRepository(db), artifacts, logger)
		pipeline.SetRecorder(history)
		logger.Info("База данных успешно подключена и готова к работе")
	}

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(newCORS(cfg))

	router.Static("/static", cfg.Storage.StaticDir)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handler.NewUploadHandler(pipeline, cfg.Storage.MaxUploadSize, logger).RegisterRoutes(router)

	var dbHealth func() error
	if db != nil {
		dbHealth = func() error { return database.HealthCheck(db) }
	}
	handler.NewHealthHandler(modelClient, dbHealth, logger).RegisterRoutes(router)

	if history != nil {
		handler.NewHistoryHandler(history, logger).RegisterRoutes(router)
	}

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Сервер запущен на %s", cfg.Address())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("Остановка HTTP сервера...")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Server.GRPCPort > 0 {
		listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("failed to listen on grpc port: %w", err)
		}
		healthServer := server.NewHealthServer(modelClient, 15*time.Second, logger)
		g.Go(func() error {
			return healthServer.Serve(gctx, listener)
		})
	}

	return g.Wait()
}

// newLogger настраивает logrus: JSON, уровень из LOG_LEVEL, ротация в LOG_FILE
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.File != "" {
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    100, // мегабайт
			MaxBackups: 5,
			MaxAge:     28, // дней
			Compress:   true,
		}))
	}
	return logger
}

// newCORS настраивает CORS по списку CORS_ALLOW_ORIGINS
func newCORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}

	if len(cfg.CORS.AllowOrigins) == 0 || (len(cfg.CORS.AllowOrigins) == 1 && cfg.CORS.AllowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	}
	return cors.New(corsConfig)
}
