package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/takio1981/my-todo-fullstack/internal/cache"
	"github.com/takio1981/my-todo-fullstack/internal/config"
	"github.com/takio1981/my-todo-fullstack/internal/middleware"
	"github.com/takio1981/my-todo-fullstack/internal/observability"
	"github.com/takio1981/my-todo-fullstack/internal/task"
	"github.com/takio1981/my-todo-fullstack/internal/user"
	"github.com/takio1981/my-todo-fullstack/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps are the shared handles the routes are built from. Redis and Events may be nil.
type Deps struct {
	DB      *sql.DB
	Redis   *redis.Client
	Events  task.EventPublisher
	Metrics *observability.Metrics
	Config  *config.Config
}

// SetupHandler initializes all dependencies and routes
func SetupHandler(deps Deps) *gin.Engine {
	validation.Register()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.PrometheusMiddleware(deps.Metrics))

	// Initialize repositories
	userRepo := user.NewUserRepository()
	taskRepo := task.NewTaskRepository()

	var taskCache *cache.TaskCache
	if deps.Redis != nil {
		taskCache = cache.NewTaskCache(deps.Redis, deps.Config.Redis.CacheTTL)
	}

	// Initialize services
	userService := user.NewUserService(userRepo, deps.DB)
	taskService := task.NewTaskService(taskRepo, deps.DB, taskCache, deps.Events)

	// Initialize controllers
	userController := user.NewUserController(userService)
	taskController := task.NewTaskController(taskService)

	setupRoutes(r, userController, taskController, credentialLimiter(deps), deps.DB)

	return r
}

// credentialLimiter throttles login and registration when Redis is available.
func credentialLimiter(deps Deps) gin.HandlerFunc {
	passThrough := func(c *gin.Context) { c.Next() }
	if deps.Redis == nil {
		return passThrough
	}

	limiter, err := middleware.RateLimiterMiddleware(deps.Redis, &middleware.RateLimiterConfig{
		Capacity:   deps.Config.RateLimit.Capacity,
		RefillRate: deps.Config.RateLimit.RefillRate,
	})
	if err != nil {
		logrus.WithError(err).Warn("Rate limiter disabled")
		return passThrough
	}
	return limiter
}

// setupRoutes configures all application routes. Task routes carry no
// credential check: login only gates the client UI.
func setupRoutes(r *gin.Engine, userCtrl *user.UserController, taskCtrl *task.TaskController, limiter gin.HandlerFunc, db *sql.DB) {
	r.GET("/health", healthHandler(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/register", limiter, userCtrl.Register)
		api.POST("/login", limiter, userCtrl.Login)

		api.GET("/tasks", taskCtrl.ListTasks)
		api.POST("/tasks", taskCtrl.CreateTask)
		api.PUT("/tasks/:id", taskCtrl.UpdateTask)
		api.DELETE("/tasks/:id", taskCtrl.DeleteTask)
	}
}

func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
