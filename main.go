package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cppla/postapi/config"
	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repositories"
	"github.com/cppla/postapi/routes"
	"github.com/cppla/postapi/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	if cfg.OTelEndpoint != "" {
		shutdown, err := utils.InitTracer(context.Background(), cfg.OTelEndpoint, cfg.OTelServiceName)
		if err != nil {
			utils.Sugar.Fatalf("tracing init failed: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	db, err := config.InitDatabase(&models.Post{})
	if err != nil {
		utils.Sugar.Fatalf("database init failed: %v", err)
	}

	var posts repositories.PostRepository = repositories.NewGormPostRepository(db)
	if rc := utils.NewRedisClient(cfg); rc != nil {
		defer rc.Close()
		cache := utils.NewCache(rc, time.Duration(cfg.CacheTTLSeconds)*time.Second)
		posts = repositories.NewCachedPostRepository(posts, cache)
	}
	if len(cfg.KafkaBrokers) > 0 {
		w := utils.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer w.Close()
		posts = repositories.NewPublishingPostRepository(posts, w)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		Posts:    posts,
		Logger:   utils.Logger,
		Registry: registry,
	})

	var handler http.Handler = r
	if cfg.OTelEndpoint != "" {
		handler = otelhttp.NewHandler(r, "http.server")
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, handler); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
