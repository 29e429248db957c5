// Command postflow serves the post review workflow over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/postflow/handlers"
	"github.com/gogotex/postflow/internal/config"
	"github.com/gogotex/postflow/internal/database"
	"github.com/gogotex/postflow/internal/history"
	"github.com/gogotex/postflow/internal/oidc"
	"github.com/gogotex/postflow/internal/post/handler"
	"github.com/gogotex/postflow/internal/post/repository"
	"github.com/gogotex/postflow/internal/post/service"
	"github.com/gogotex/postflow/internal/sessions"
	"github.com/gogotex/postflow/internal/storage"
	"github.com/gogotex/postflow/internal/tokens"
	"github.com/gogotex/postflow/pkg/logger"
	"github.com/gogotex/postflow/pkg/metrics"
	"github.com/gogotex/postflow/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const mongoConnectAttempts = 5

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.UseJSON(os.Getenv("LOG_FORMAT") == "json")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: store=%s keycloak=%v redis=%v reviewer_auth=%v", cfg.Store.Backend, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.Auth.RequireReviewer)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, cleanup, err := buildServer(ctx, cfg)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("postflow listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// buildServer wires storage, auth and routes. The returned cleanup closes
// every client opened here.
func buildServer(ctx context.Context, cfg *config.Config) (*gin.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*gin.Engine, func(), error) {
		cleanup()
		return nil, nil, err
	}
	started := time.Now()
	checks := map[string]handlers.Check{}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	// Redis backs token revocation, the distributed rate limiter and, when
	// selected, post storage.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			if cfg.Store.Backend == config.StoreRedis {
				return fail(fmt.Errorf("redis %s: %w", cfg.Redis.Addr(), err))
			}
			logger.Warnf("failed to connect to Redis (%s): %v; revocation and redis rate limiting disabled", cfg.Redis.Addr(), err)
		} else {
			rdb = client
			sessions.SetRevocationClient(rdb)
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	var opts []service.Option
	var archive *storage.MinIOStorage
	if mc := storage.LoadMinIOConfig(); mc.Enabled() {
		a, err := storage.NewMinIOStorage(ctx, mc)
		if err != nil {
			logger.Warnf("published posts will not be archived: %v", err)
		} else {
			archive = a
			opts = append(opts, service.WithArchiver(archive))
			logger.Infof("archiving published posts to bucket %s", mc.Bucket)
		}
	}

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			if cfg.Store.Backend == config.StoreMongo {
				return fail(err)
			}
			logger.Warnf("MongoDB unavailable, history kept in memory: %v", err)
		} else {
			mongoClient = client
			closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
			checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		}
	}

	var svc service.Service
	switch cfg.Store.Backend {
	case config.StoreMongo:
		db := mongoClient.Database(cfg.MongoDB.Database)
		svc = service.NewMongoService(db.Collection(cfg.MongoDB.PostsCollection), db.Collection(cfg.MongoDB.HistoryCollection), opts...)
	case config.StoreRedis:
		var rec history.Recorder = history.NewMemoryRecorder()
		if mongoClient != nil {
			rec = history.NewMongoRecorder(mongoClient.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.HistoryCollection))
		}
		opts = append([]service.Option{service.WithHistory(rec)}, opts...)
		svc = service.New(repository.NewRedisRepository(rdb, cfg.Store.RedisPrefix), opts...)
	default:
		svc = service.NewMemoryService(opts...)
	}
	logger.Infof("post store: %s", cfg.Store.Backend)

	verifier, err := buildVerifier(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	var guard []gin.HandlerFunc
	if cfg.Auth.RequireReviewer {
		guard = append(guard, middleware.AuthMiddleware(verifier))
	}
	if verifier != nil {
		handlers.NewAuthHandler(cfg, verifier).Register(r)
	}

	handlers.RegisterHealth(r, started, checks)
	handlers.RegisterSwagger(r)
	handler.RegisterPostRoutes(r, svc, guard...)
	if archive != nil {
		handlers.RegisterArchive(r, archive)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, cleanup, nil
}

// buildVerifier prefers Keycloak, then the shared JWT secret, then the
// insecure parser when explicitly allowed. It returns nil when none is
// configured.
func buildVerifier(ctx context.Context, cfg *config.Config) (middleware.Verifier, error) {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, oidc.RealmIssuer(cfg.Keycloak.URL, cfg.Keycloak.Realm), cfg.Keycloak.ClientID)
		if err == nil {
			return ver, nil
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWT.Secret != "" {
		return tokens.NewHMACVerifier(cfg.JWT.Secret), nil
	}
	if cfg.Auth.AllowInsecureToken {
		logger.Warnf("enabling insecure token verifier (integration mode)")
		return oidc.NewInsecureVerifier(), nil
	}
	if cfg.Auth.RequireReviewer {
		return nil, errors.New("reviewer auth required but no token verifier could be configured")
	}
	return nil, nil
}
