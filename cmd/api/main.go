package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/takio1981/my-todo-fullstack/internal/cache"
	"github.com/takio1981/my-todo-fullstack/internal/config"
	"github.com/takio1981/my-todo-fullstack/internal/db"
	"github.com/takio1981/my-todo-fullstack/internal/handler"
	"github.com/takio1981/my-todo-fullstack/internal/logging"
	"github.com/takio1981/my-todo-fullstack/internal/observability"
	"github.com/takio1981/my-todo-fullstack/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.Init(&cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database connection")
		}
	}()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.EnsureSchema(schemaCtx, database)
	cancel()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to prepare schema")
	}

	deps := handler.Deps{
		DB:     database,
		Config: cfg,
	}

	if cfg.Redis.Enabled() {
		rdb, err := cache.SetupRedis(&cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, running without cache and rate limiting")
		} else {
			deps.Redis = rdb
			defer func() {
				if err := rdb.Close(); err != nil {
					logrus.WithError(err).Error("Failed to close redis connection")
				}
			}()
		}
	}

	if cfg.RabbitMQ.Enabled() {
		conn, err := queue.SetupRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logrus.WithError(err).Warn("RabbitMQ unavailable, task events disabled")
		} else {
			defer func() {
				if err := conn.Close(); err != nil {
					logrus.WithError(err).Error("Failed to close RabbitMQ connection")
				}
			}()

			publisher, err := queue.NewPublisher(conn, queue.TaskEventsQueue)
			if err != nil {
				logrus.WithError(err).Warn("Failed to open publishing channel, task events disabled")
			} else {
				deps.Events = publisher
				defer func() {
					if err := publisher.Close(); err != nil {
						logrus.WithError(err).Error("Failed to close publishing channel")
					}
				}()
			}
		}
	}

	// Initialize Prometheus metrics
	observability.InitMetrics()
	deps.Metrics = observability.GlobalMetrics
	logrus.Info("Metrics initialized")

	r := handler.SetupHandler(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.Infof("Starting %s on %s", cfg.AppName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shut down")
	}
}
