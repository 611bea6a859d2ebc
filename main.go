package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jobboard/auth-service/handlers"
	"github.com/jobboard/auth-service/internal/auth"
	"github.com/jobboard/auth-service/internal/config"
	"github.com/jobboard/auth-service/internal/cookies"
	"github.com/jobboard/auth-service/internal/database"
	"github.com/jobboard/auth-service/internal/refreshtokens"
	"github.com/jobboard/auth-service/internal/users"
	"github.com/jobboard/auth-service/pkg/logger"
	"github.com/jobboard/auth-service/pkg/metrics"
	"github.com/jobboard/auth-service/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first (controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s postgres=%s redis=%v", cfg.Server.Environment, cfg.Postgres.Host, cfg.Redis.Host != "")

	ctx := context.Background()

	db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN(), 10*time.Second)
	if err != nil {
		logger.Fatalf("postgres connection failed: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatalf("migrations failed: %v", err)
	}
	logger.Infof("postgres ready, schema up to date")

	userSvc := users.NewService(users.NewPostgresRepository(db))
	refreshSvc := refreshtokens.NewService(refreshtokens.NewPostgresRepository(db))
	authSvc := auth.NewService(auth.Config{
		JWTSecret:          []byte(cfg.JWT.Secret),
		AccessTokenTTL:     cfg.JWT.Expiration,
		RefreshTTL:         cfg.RefreshToken.Expiration,
		RefreshRememberTTL: cfg.RefreshToken.RememberExpiration,
	}, userSvc, refreshSvc)

	codec := cookies.NewCodec(cfg.SignedCookie.Key1, cfg.SignedCookie.Key2)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Connect to Redis early so the rate-limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// identity enrichment runs before the rate limiter so authenticated
	// traffic is keyed per user instead of per IP
	r.Use(middleware.Identity([]byte(cfg.JWT.Secret)))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the critical dependencies answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps["postgres"] = db.PingContext(pingCtx) == nil
		if !deps["postgres"] {
			ready = false
		}

		// redis only gates readiness when the limiter depends on it
		if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil && redisClient.Ping(pingCtx).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.NewAuthHandler(cfg, authSvc, codec).Register(r)
	handlers.RegisterSwagger(r)

	api := r.Group("/api")
	handlers.NewUsersHandler(userSvc).Register(api)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting auth service on %s", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
