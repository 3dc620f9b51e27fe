package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cppla/postapi/config"
	"github.com/cppla/postapi/controllers"
	"github.com/cppla/postapi/middleware"
	"github.com/cppla/postapi/repositories"
	"github.com/cppla/postapi/utils"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Config   config.AppConfig
	Posts    repositories.PostRepository
	Logger   *zap.Logger
	Registry *prometheus.Registry
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.AccessLog(accessLogger(cfg, logger)))
	r.Use(middleware.Recovery(logger, true))
	r.Use(middleware.NewMetrics(registry).Handler())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	postController := controllers.NewPostController(deps.Posts, logger.Sugar())

	api := r.Group("/api/v1")
	api.Use(middleware.ErrorHandler(logger))

	posts := api.Group("/posts")
	posts.GET("", postController.Index)
	posts.GET("/:id", postController.Show)

	writes := posts.Group("")
	writes.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute).Handler())
	if cfg.JWTSecret != "" {
		writes.Use(middleware.AuthRequired(cfg.JWTSecret))
	}
	writes.POST("", postController.Store)
	writes.PUT("/:id", postController.Update)
	writes.DELETE("/:id", postController.Destroy)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeRouteNotFound, "route not found")
	})

	return r
}

// accessLogger writes access logs to a dedicated rolling file when GinPath is set.
func accessLogger(cfg config.AppConfig, fallback *zap.Logger) *zap.Logger {
	if cfg.GinPath == "" {
		return fallback
	}
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		fallback.Warn("gin access log unavailable, using application logger", zap.Error(err))
		return fallback
	}
	return gl
}
