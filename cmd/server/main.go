package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pulseone-console/api/server"
	"pulseone-console/internal/alarm"
	"pulseone-console/internal/collectorwatch"
	"pulseone-console/internal/config"
	"pulseone-console/internal/database"
	"pulseone-console/internal/events"
	"pulseone-console/internal/logger"
	"pulseone-console/internal/notify"
	"pulseone-console/internal/search"
	"pulseone-console/internal/settings"
)

var (
	configFile = flag.String("config", "etc/config.yaml", "Path to configuration file")
	version    = "1.0.0"
)

const auditDir = "logs/audit"

func main() {
	flag.Parse()

	// .env가 있으면 환경변수로 읽어둔다 (없어도 무방)
	_ = godotenv.Load()

	// 설정 파일 우선, 실패하면 환경변수로 폴백
	var cfg *config.Config
	if _, err := os.Stat(*configFile); err == nil {
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Printf("Failed to load config from file: %v\n", err)
			fmt.Println("Falling back to environment variables...")
			cfg = config.Load()
		}
	} else {
		fmt.Println("Config file not found, loading from environment variables...")
		cfg = config.Load()
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Output); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("starting pulseone console backend",
		zap.String("version", version),
		zap.String("config_file", *configFile))

	if err := logger.InitAuditLog(auditDir); err != nil {
		log.Fatal("failed to prepare audit log directory", zap.Error(err))
	}

	if err := database.InitDB(database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}); err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	log.Info("database initialized",
		zap.String("driver", cfg.Database.Driver),
		zap.String("database", cfg.Database.DBName))

	db := database.GetDB()

	// Redis: 알람 이벤트 스트림 + 수집기 heartbeat
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		cancel()
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Info("redis is disabled")
	}

	// Elasticsearch: 발생 이력 인덱스
	searchClient, err := search.NewClient(cfg.Elasticsearch, log)
	if err != nil {
		log.Fatal("failed to initialize elasticsearch", zap.Error(err))
	}
	if searchClient != nil {
		if err := searchClient.CreateIndexTemplate(context.Background()); err != nil {
			log.Warn("failed to create index template", zap.Error(err))
		}
	} else {
		log.Info("elasticsearch is disabled")
	}

	notifier := notify.NewManager(db, cfg.Notify, log)

	alarmOpts := []alarm.Option{
		alarm.WithNotifier(notifier),
		alarm.WithAuditDir(auditDir),
	}
	if rdb != nil {
		alarmOpts = append(alarmOpts, alarm.WithEventSink(events.NewPublisher(rdb, events.DefaultStream, log)))
	}
	if searchClient != nil {
		alarmOpts = append(alarmOpts, alarm.WithIndexer(searchClient))
	}
	alarmSvc := alarm.NewService(db, log, alarmOpts...)

	collectorSvc := collectorwatch.NewService(db, rdb, cfg.Watch, log)
	collectorSvc.Start()

	settingsSvc := settings.NewService(db, log, auditDir)

	srv := server.NewServer(cfg, alarmSvc, collectorSvc, settingsSvc, log, server.Options{
		AuditDir: auditDir,
		Search:   searchClient,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down...", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}

	collectorSvc.Stop()
	notifier.Close()

	log.Info("pulseone console backend stopped")
}
