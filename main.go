// Campaign console API server
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/textpulse/campaign-console/app/handlers"
	"github.com/textpulse/campaign-console/app/router"
	businessflow "github.com/textpulse/campaign-console/business_flow"
	"github.com/textpulse/campaign-console/config"
	"github.com/textpulse/campaign-console/models"
	"github.com/textpulse/campaign-console/repository"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	db, err := connectDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := migrateDatabase(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient := connectRedis(cfg)

	// Repositories. Campaign writes go through the replicated decorator so
	// the console keeps working when postgres is unreachable.
	campaignRepo := repository.NewReplicatedCampaignRepository(repository.NewCampaignRepository(db))
	contactRepo := repository.NewContactRepository(db)
	mailingListRepo := repository.NewMailingListRepository(db)
	reportRepo := repository.NewCampaignReportRepository(db)
	executionRepo := repository.NewReplicatedExecutionRecordRepository(repository.NewExecutionRecordRepository(db))
	templateRepo := repository.NewMessageTemplateRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Business flows
	audienceFlow := businessflow.NewAudienceFlow(campaignRepo, contactRepo, mailingListRepo, redisClient)
	campaignFlow := businessflow.NewCampaignFlow(campaignRepo, mailingListRepo, templateRepo, executionRepo, auditRepo, db)
	reportFlow := businessflow.NewReportFlow(campaignRepo, reportRepo, audienceFlow, auditRepo, db)
	executionFlow := businessflow.NewExecutionFlow(campaignRepo, reportRepo, executionRepo, audienceFlow, auditRepo, redisClient, db)
	contactFlow := businessflow.NewContactFlow(contactRepo, db)
	mailingListFlow := businessflow.NewMailingListFlow(mailingListRepo, db)
	templateFlow := businessflow.NewTemplateFlow(templateRepo)

	r := router.NewFiberRouter(router.Handlers{
		Campaign:    handlers.NewCampaignHandler(campaignFlow),
		Execution:   handlers.NewExecutionHandler(executionFlow, reportFlow),
		Audience:    handlers.NewAudienceHandler(audienceFlow),
		Contact:     handlers.NewContactHandler(contactFlow),
		MailingList: handlers.NewMailingListHandler(mailingListFlow),
		Template:    handlers.NewTemplateHandler(templateFlow),
	}, cfg, db, redisClient)
	r.SetupRoutes()

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("campaign console listening on %s", address)
		if err := r.Start(address); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-shutdown
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := r.GetApp().ShutdownWithContext(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("shutdown complete")
}

func setupLogging(cfg *config.ProductionConfig) {
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lshortfile)

	if cfg.Logging.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		})
	}
}

func connectDatabase(cfg *config.ProductionConfig) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Logging.Level == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	return db, nil
}

func migrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Contact{},
		&models.MailingList{},
		&models.Campaign{},
		&models.CampaignReport{},
		&models.ExecutionRecord{},
		&models.MessageTemplate{},
		&models.AuditLog{},
	)
}

func connectRedis(cfg *config.ProductionConfig) *redis.Client {
	if !cfg.Cache.RedisEnabled {
		log.Println("redis disabled, using in-process locks and uncached previews")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Cache.RedisAddr(),
		Password:     cfg.Cache.RedisPassword,
		DB:           cfg.Cache.RedisDB,
		DialTimeout:  cfg.Cache.DialTimeout,
		ReadTimeout:  cfg.Cache.ReadTimeout,
		WriteTimeout: cfg.Cache.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Cache.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable at startup: %v", err)
	}

	return client
}

func startMetricsServer(cfg *config.ProductionConfig) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())

	address := fmt.Sprintf(":%d", cfg.Metrics.Port)
	log.Printf("metrics server listening on %s%s", address, cfg.Metrics.Path)
	if err := http.ListenAndServe(address, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
