package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"community_hub/internal/config"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/database"
	"community_hub/internal/repository/redis"
	"community_hub/internal/router"
	"community_hub/internal/session"
)

func main() {
	cfg := config.Load()
	log := pkg.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}

	// 自动建表
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	sessions := newSessionStore(cfg, log)
	events := newPublisher(cfg, log)
	defer events.Close()

	r := router.InitRouter(router.Deps{
		Config:   cfg,
		DB:       db,
		Sessions: sessions,
		Events:   events,
		Metrics:  pkg.NewMetrics(),
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	log.Info("server exited")
}

// newSessionStore 配置了 redis 就用 redis，否则退回内存存储（单实例开发用）
func newSessionStore(cfg *config.Config, log *logrus.Logger) session.Store {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, using in-memory sessions")
		return session.NewMemoryStore(cfg.SessionTTL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("connect redis")
	}
	return &redis.SessionRepository{Client: client, TTL: cfg.SessionTTL}
}

func newPublisher(cfg *config.Config, log *logrus.Logger) pkg.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return &pkg.LogPublisher{Log: log}
	}
	producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaTopic,
		WriteTimeout: cfg.KafkaPublishTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("create kafka producer")
	}
	return producer
}
