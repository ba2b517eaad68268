package controllers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/middleware"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/services"
)

// JSONBodyLimit caps every non multipart request body.
const JSONBodyLimit = 10 << 10

type RouterConfig struct {
	Auth    *services.AuthService
	Users   *services.UserService
	Tours   *services.TourService
	Reviews *services.ReviewService

	// Limiter guards /api. Nil disables rate limiting.
	Limiter        middleware.Limiter
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For. Nil trusts none, so the
	// client IP is always the socket peer.
	TrustedProxies []string
	// PublicURL is the base of links mailed to users.
	PublicURL      string
	CookieTTL      time.Duration
	Production     bool
	MaxUploadBytes int64
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	allowedOrigins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(cfg.Production),
		middleware.Recovery(),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOriginFunc:  func(origin string) bool { return allowedOrigins[origin] },
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	r.NoRoute(middleware.NotFound())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	if cfg.Limiter != nil {
		api.Use(middleware.RateLimit(cfg.Limiter))
	}
	api.Use(middleware.BodyLimit(JSONBodyLimit, cfg.MaxUploadBytes))
	v1 := api.Group("/v1")

	protect := middleware.Protect(cfg.Auth)
	restrictTo := middleware.RestrictTo

	auth := NewAuthController(cfg.Auth, cfg.PublicURL, cfg.CookieTTL, cfg.Production)
	users := NewUserController(cfg.Users)
	tours := NewTourController(cfg.Tours)
	reviews := NewReviewController(cfg.Reviews)

	u := v1.Group("/users")
	{
		u.POST("/signup", auth.Signup())
		u.POST("/login", auth.Login())
		u.GET("/logout", auth.Logout())
		u.POST("/forgotPassword", auth.ForgotPassword())
		u.PATCH("/resetPassword/:token", auth.ResetPassword())

		me := u.Group("", protect)
		me.PATCH("/updateMyPassword", auth.UpdatePassword())
		me.GET("/me", users.GetMe())
		me.PATCH("/updateMe", users.UpdateMe())
		me.DELETE("/deleteMe", users.DeleteMe())

		admin := u.Group("", protect, restrictTo(models.RoleAdmin))
		admin.GET("", users.GetUsers())
		admin.POST("", users.CreateUser())
		admin.GET("/:id", users.GetUser())
		admin.PATCH("/:id", users.UpdateUser())
		admin.DELETE("/:id", users.DeleteUser())
	}

	t := v1.Group("/tours")
	{
		t.GET("", tours.GetTours())
		t.GET("/top-5-cheap", AliasTopTours(), tours.GetTours())
		t.GET("/tour-stats", tours.GetTourStats())
		t.GET("/monthly-plan/:year", protect, restrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide), tours.GetMonthlyPlan())
		t.GET("/:id", tours.GetTour())

		staff := t.Group("", protect, restrictTo(models.RoleAdmin, models.RoleLeadGuide))
		staff.POST("", tours.CreateTour())
		staff.PATCH("/:id", tours.UpdateTour())
		staff.DELETE("/:id", tours.DeleteTour())
		staff.PATCH("/:id/images", tours.UploadTourImages())

		t.GET("/:id/reviews", reviews.GetReviews(true))
		t.POST("/:id/reviews", protect, restrictTo(models.RoleUser), reviews.CreateReview(true))
	}

	rv := v1.Group("/reviews")
	{
		rv.GET("", reviews.GetReviews(false))
		rv.POST("", protect, restrictTo(models.RoleUser), reviews.CreateReview(false))
		rv.GET("/:id", reviews.GetReview())
		rv.PATCH("/:id", protect, restrictTo(models.RoleUser, models.RoleAdmin), reviews.UpdateReview())
		rv.DELETE("/:id", protect, restrictTo(models.RoleUser, models.RoleAdmin), reviews.DeleteReview())
	}

	return r, nil
}
