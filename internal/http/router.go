package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yabe12/bizdir/internal/http/handlers"
	"github.com/yabe12/bizdir/internal/http/middlewares"
	"github.com/yabe12/bizdir/internal/observability"
)

const serviceName = "bizdir-api"

// Deps is everything the router wires into handlers. Prom, Gatherer,
// Limiters and Ready are optional.
type Deps struct {
	Env            string
	AllowedOrigins []string

	Accounts   handlers.AccountService
	Businesses handlers.BusinessService
	Categories handlers.CategoryService
	Comments   handlers.CommentService
	Ratings    handlers.RatingService
	Tokens     middlewares.TokenVerifier

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Limiters guard the unauthenticated credential routes. Nil falls back
	// to per-process limits.
	LoginLimiter middlewares.Limiter
	ResetLimiter middlewares.Limiter

	Ready map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	if deps.Env != "dev" && deps.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(middlewares.DefaultMaxBodyBytes))

	// ops
	h := handlers.NewHealthHandler(deps.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	loginLimiter := deps.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middlewares.NewMemoryLimiter(10, time.Minute)
	}
	resetLimiter := deps.ResetLimiter
	if resetLimiter == nil {
		resetLimiter = middlewares.NewMemoryLimiter(5, 15*time.Minute)
	}
	loginLimit := middlewares.RateLimit(loginLimiter, middlewares.KeyByIP, log)
	resetLimit := middlewares.RateLimit(resetLimiter, middlewares.KeyByIP, log)

	requireAuth := middlewares.NewAuthMiddleware(deps.Tokens).RequireAuth()

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())

	users := handlers.NewUsersHandler(deps.Accounts, log)
	u := api.Group("/users")
	u.POST("/register", users.Register)
	u.POST("/login", loginLimit, users.Login)
	u.POST("/forgot-password", resetLimit, users.ForgotPassword)
	u.POST("/reset-password", resetLimit, users.ResetPassword)
	u.GET("/profile", requireAuth, users.GetProfile)
	u.PUT("/profile", requireAuth, users.UpdateProfile)
	u.DELETE("/profile", requireAuth, users.DeleteProfile)

	businesses := handlers.NewBusinessesHandler(deps.Businesses, log)
	comments := handlers.NewCommentsHandler(deps.Comments, log)
	ratings := handlers.NewRatingsHandler(deps.Ratings, log)

	b := api.Group("/businesses")
	b.GET("", businesses.List)
	b.GET("/search", businesses.Search)
	b.GET("/:id", businesses.GetByID)
	b.GET("/:id/comments", comments.ListByBusiness)
	b.GET("/:id/ratings", ratings.ListByBusiness)
	b.POST("", requireAuth, businesses.Create)
	b.PUT("/:id", requireAuth, businesses.Update)
	b.DELETE("/:id", requireAuth, businesses.Delete)

	categories := handlers.NewCategoriesHandler(deps.Categories, log)
	c := api.Group("/categories")
	c.GET("", categories.List)
	c.GET("/:id", categories.GetByID)
	c.GET("/:id/businesses", categories.ListBusinesses)

	cm := api.Group("/comments", requireAuth)
	cm.POST("", comments.Create)
	cm.PUT("/:id", comments.Update)
	cm.DELETE("/:id", comments.Delete)

	rt := api.Group("/ratings", requireAuth)
	rt.POST("", ratings.Create)
	rt.PUT("/:id", ratings.Update)
	rt.DELETE("/:id", ratings.Delete)

	return r
}
