package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shenikar/geo_safety_monitor/internal/config"
	"github.com/shenikar/geo_safety_monitor/internal/geo"
	v1 "github.com/shenikar/geo_safety_monitor/internal/handler/http/v1"
	"github.com/shenikar/geo_safety_monitor/internal/hub"
	"github.com/shenikar/geo_safety_monitor/internal/mqtt"
	"github.com/shenikar/geo_safety_monitor/internal/queue"
	"github.com/shenikar/geo_safety_monitor/internal/repository"
	"github.com/shenikar/geo_safety_monitor/internal/repository/memstore"
	"github.com/shenikar/geo_safety_monitor/internal/scoring"
	"github.com/shenikar/geo_safety_monitor/internal/service"
	"github.com/shenikar/geo_safety_monitor/internal/webhook"
	"github.com/shenikar/geo_safety_monitor/pkg/logger"
	"github.com/shenikar/geo_safety_monitor/pkg/postgres"
	redisclient "github.com/shenikar/geo_safety_monitor/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/geo_safety_monitor/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// stores - реализации хранилищ для выбранного STORE_DRIVER
type stores struct {
	subjects  service.SubjectRepository
	incidents service.IncidentRepository
	zones     service.ZoneRepository
	alerts    interface {
		webhook.WebhookPublisher
		webhook.Queue
	}
	close func()
}

// @title Geo Safety Monitor API
// @version 1.0
// @description Subject safety monitoring: zones, safety score, panic workflow and incidents.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("Using in-memory store, state will not survive a restart")
		return &stores{
			subjects:  memstore.NewSubjectStore(),
			incidents: memstore.NewIncidentStore(),
			zones:     memstore.NewZoneStore(),
			alerts:    webhook.NewMemoryWebhookPublisher(cfg.HubQueueSize),
			close:     func() {},
		}, nil
	}

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg)
	if err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("Successfully connected to Redis")

	return &stores{
		subjects:  repository.NewSubjectRepository(dbpool, redisClient),
		incidents: repository.NewIncidentRepository(dbpool, redisClient),
		zones:     repository.NewZoneRepository(dbpool),
		alerts:    webhook.NewRedisWebhookPublisher(redisClient),
		close: func() {
			redisClient.Close()
			dbpool.Close()
		},
	}, nil
}

// seedZones загружает ZONES_FILE, если каталог ещё пуст
func seedZones(ctx context.Context, cfg *config.Config, zoneService service.ZoneService, catalog *geo.Catalog, log *logrus.Logger) error {
	if catalog.Loaded() || cfg.ZonesFile == "" {
		return nil
	}
	data, err := os.ReadFile(cfg.ZonesFile)
	if err != nil {
		return fmt.Errorf("failed to read zones file: %w", err)
	}
	zones, err := geo.ZonesFromFeatureCollection(data)
	if err != nil {
		return err
	}
	if err := zoneService.LoadZones(ctx, zones); err != nil {
		return err
	}
	log.WithField("zones", len(zones)).Info("Zone catalog seeded from file")
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer st.close()

	// Ядро: каталог зон, движок счёта, хаб событий
	catalog := geo.NewCatalog()
	engine := scoring.NewEngine(scoring.Params{
		DangerDecay:  cfg.ScoreDangerDecay,
		CautionDecay: cfg.ScoreCautionDecay,
		RecoveryRate: cfg.ScoreRecoveryRate,
		SafeDwell:    cfg.ScoreSafeDwell,
		Freshness:    cfg.LocationFreshness,
		StalePenalty: cfg.ScoreStalePenalty,
	})
	eventHub := hub.New(cfg.HubQueueSize, log)
	defer eventHub.Close()

	persister := service.NewPersister(cfg.PersistQueueSize, log)
	persister.Start()

	// Инициализация и запуск воркера вебхуков
	webhookWorker := webhook.NewWebhookWorker(st.alerts, log, cfg)
	webhookWorker.Start(ctx)

	// Инициализация сервисов
	registry := service.NewRegistry(st.subjects)
	zoneService := service.NewZoneService(st.zones, catalog, log)
	subjectService := service.NewSubjectService(registry, st.subjects, catalog, engine, eventHub, persister, log, cfg)
	incidentService := service.NewIncidentService(st.incidents, eventHub, log, cfg)
	emergencyService := service.NewEmergencyService(registry, st.subjects, incidentService, eventHub, st.alerts, persister, log, cfg)

	// Восстановление состояния
	if n, err := zoneService.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore zones: %v", err)
	} else if n > 0 {
		log.WithField("zones", n).Info("Zone catalog restored")
	}
	if err := seedZones(ctx, cfg, zoneService, catalog, log); err != nil {
		log.Fatalf("Failed to seed zones: %v", err)
	}
	if !catalog.Loaded() {
		log.Warn("Zone catalog is empty, ingest runs in degraded mode until zones are loaded")
	}
	if n, err := subjectService.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore subjects: %v", err)
	} else {
		log.WithField("subjects", n).Info("Subjects restored")
	}

	service.StartSweeper(ctx, subjectService, cfg.ScoreSweepInterval, log)

	// Зеркалирование событий в Kafka
	var mirror *queue.Mirror
	if len(cfg.KafkaBrokers) > 0 {
		mirror = queue.NewMirror(queue.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), eventHub, log)
		mirror.Start(ctx)
	}

	// Приём координат с устройств по MQTT
	var mqttConsumer *mqtt.Consumer
	if cfg.MQTTBroker != "" {
		mqttConsumer = mqtt.NewConsumer(subjectService, log, cfg)
		if err := mqttConsumer.Start(); err != nil {
			log.Fatalf("Failed to start MQTT consumer: %v", err)
		}
	}

	// Инициализация хэндлеров
	handler := v1.NewHandler(subjectService, emergencyService, incidentService, zoneService, eventHub, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	if mqttConsumer != nil {
		mqttConsumer.Stop()
	}
	emergencyService.Stop()
	cancel()
	if mirror != nil {
		<-mirror.Done()
		if err := mirror.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Kafka writer")
		}
	}
	<-webhookWorker.Done()
	persister.Close()

	log.Info("Server gracefully stopped")
}
