package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/config"
	"github.com/princinho/toursbackend/controllers"
	"github.com/princinho/toursbackend/database"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/logger"
	"github.com/princinho/toursbackend/mailer"
	"github.com/princinho/toursbackend/middleware"
	"github.com/princinho/toursbackend/repositories"
	"github.com/princinho/toursbackend/services"
	"github.com/princinho/toursbackend/utils"
	"github.com/redis/go-redis/v9"
)

// Query keys that may repeat in a listing URL and then match any of the values.
var multiValueParams = []string{"duration", "ratingsQuantity", "ratingsAverage", "maxGroupSize", "difficulty", "price"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	logger.Init(cfg.Env)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongodb connection failed", "error", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect failed", "error", err)
		}
	}()
	db := client.Database(cfg.DatabaseName)

	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("index bootstrap failed", "error", err)
	}
	if err := utils.SeedAdminUser(ctx, db.Collection(database.UsersCollection), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("admin seeding failed", "error", err)
	}

	store, err := utils.NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("object store setup failed", "driver", cfg.Storage.Driver, "error", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	if store == nil {
		logger.Warn("no object store configured, tour image uploads are disabled")
	}

	users := repositories.NewUserRepository(db)
	tours := repositories.NewTourRepository(db)
	reviews := repositories.NewReviewRepository(db)
	query := apifeatures.NewBuilder(cfg.ReadQueryMaxLimit, multiValueParams...)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)

	dto.RegisterValidation()
	router, err := controllers.NewRouter(controllers.RouterConfig{
		Auth:           services.NewAuthService(users, tokens, mailer.NewSMTPMailer(cfg.Email)),
		Users:          services.NewUserService(users, query),
		Tours:          services.NewTourService(tours, reviews, store, utils.NewImageValidator(cfg.Storage.MaxUploadSizeMB), query),
		Reviews:        services.NewReviewService(reviews, tours, query),
		Limiter:        newLimiter(ctx, cfg),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		PublicURL:      cfg.PublicURL(),
		CookieTTL:      cfg.JWTCookieExpires,
		Production:     cfg.IsProduction(),
		MaxUploadBytes: int64(cfg.Storage.MaxUploadSizeMB*(services.MaxTourImages+1)+1) << 20,
	})
	if err != nil {
		logger.Fatal("router setup failed", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// newLimiter prefers a shared Redis window and falls back to an in-process
// limiter when Redis is not configured or unreachable.
func newLimiter(ctx context.Context, cfg *config.Config) middleware.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			logger.Info("rate limiting through redis", "addr", cfg.RedisAddr)
			return middleware.NewRedisLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow)
		}
		logger.Warn("redis unreachable, rate limiting in process", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
	}
	return middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
}
