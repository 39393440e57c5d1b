package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigil/internal/configstore"
	"vigil/internal/detection"
	detectionmetrics "vigil/internal/detection/metrics"
	"vigil/internal/directory"
	"vigil/internal/integrity/handler"
	integritymetrics "vigil/internal/integrity/metrics"
	"vigil/internal/integrity/service"
	integritystore "vigil/internal/integrity/store"
	integritymemory "vigil/internal/integrity/store/memory"
	integritypostgres "vigil/internal/integrity/store/postgres"
	"vigil/internal/notify"
	"vigil/internal/platform/config"
	"vigil/internal/platform/httpserver"
	"vigil/internal/platform/kafka"
	"vigil/internal/platform/logger"
	"vigil/internal/platform/middleware"
	platformredis "vigil/internal/platform/redis"
	"vigil/internal/scheduler"
	"vigil/internal/trail"
	trailmemory "vigil/internal/trail/store/memory"
	trailpostgres "vigil/internal/trail/store/postgres"
	"vigil/internal/worker"
)

// main wires dependencies and owns process lifecycle. Business logic lives in
// the internal packages.
func main() {
	cfg := config.FromEnv()
	caps := cfg.Capabilities()
	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence: postgres when configured, in-memory otherwise.
	var trailStore trail.Store
	var reportStore integritystore.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		trailStore = trailpostgres.New(db)
		reportStore = integritypostgres.New(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		trailStore = trailmemory.NewInMemoryStore()
		reportStore = integritymemory.NewInMemoryStore()
	}

	// Configuration store: redis when configured.
	var contacts configstore.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		contacts = configstore.NewRedis(redisClient)
	} else {
		log.Warn("no redis URL configured, oversight contacts unavailable")
		contacts = configstore.NewMemory()
	}

	// Queue backend: absent brokers degrade scheduler and notifications.
	kafkaClient, err := kafka.New(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka connect failed", "error", err)
		os.Exit(1)
	}
	var queue notify.Queue
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopics(ctx, cfg.Kafka.ScanJobTopic, cfg.Kafka.NotificationTopic); err != nil {
			log.Error("topic bootstrap failed", "error", err)
			os.Exit(1)
		}
		queue = kafkaClient
	} else {
		log.Warn("no kafka brokers configured, scheduler and notifications degrade to no-ops")
	}

	dispatcher := notify.NewDispatcher(queue, caps, cfg.Kafka.NotificationTopic, contacts, log,
		notify.WithMetrics(notify.NewMetrics()),
	)

	integritySvc := service.New(reportStore, trailStore,
		service.WithLogger(log),
		service.WithMetrics(integritymetrics.New()),
		service.WithNotifier(dispatcher),
	)

	dir := directory.NewStatic(nil)
	runner := detection.NewRunner(integritySvc, detection.DefaultRules(trailStore, dir),
		detection.WithLogger(log),
		detection.WithMetrics(detectionmetrics.New()),
	)

	// Consumer side: scan jobs and notification deliveries.
	if kafkaClient != nil {
		router := kafka.NewRouter(log)
		router.Register(cfg.Kafka.ScanJobTopic, worker.NewScanJobHandler(runner, log))
		router.Register(cfg.Kafka.NotificationTopic, worker.NewNotificationHandler(worker.NewLogSender(log), log))

		consumer, err := kafka.NewConsumer(cfg.Kafka, router, log)
		if err != nil {
			log.Error("kafka consumer setup failed", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("consumer stopped", "error", err)
			}
		}()
	}

	// Daily detection trigger. Enqueue-only; the worker runs the scan.
	sched := scheduler.New(queue, caps, log)
	sched.Register(scheduler.Job{
		Name:  "daily-detection-scan",
		Topic: cfg.Kafka.ScanJobTopic,
		Hour:  cfg.ScanHour,
		Payload: func(now time.Time) ([]byte, error) {
			return json.Marshal(worker.ScanJob{TriggeredAt: now})
		},
	})
	if err := sched.Start(ctx); err != nil {
		log.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// HTTP surface.
	reportsHandler := handler.New(integritySvc, log)
	validator := middleware.NewJWTValidator(cfg.JWTSigningKey)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Group(reportsHandler.RegisterPublic)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		reportsHandler.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting vigil", "addr", cfg.Addr, "queue_available", caps.QueueAvailable)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
