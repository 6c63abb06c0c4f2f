package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medesk/helpdesk-api/internal/middleware"
)

// Handler registers routes that need no per-route permission gate.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// GuardedHandler registers routes behind per-route permission gates.
type GuardedHandler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

// EngineHandler registers routes directly on the engine, outside /api/v1.
type EngineHandler interface {
	RegisterRoutes(*gin.Engine)
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware

	healthH Handler

	authH  Handler
	adminH Handler

	authzH      Handler
	rbacH       GuardedHandler
	categoryH   GuardedHandler
	userH       GuardedHandler
	clinicH     GuardedHandler
	departmentH GuardedHandler
	tagH        GuardedHandler
	ticketH     GuardedHandler

	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	MetricsPrefix    string
	MetricsEnabled   bool
	MetricsPath      string
}

type Handlers struct {
	Health EngineHandler

	Auth  Handler
	Admin Handler

	Authz      Handler
	RBAC       GuardedHandler
	Category   GuardedHandler
	User       GuardedHandler
	Clinic     GuardedHandler
	Department GuardedHandler
	Tag        GuardedHandler
	Ticket     GuardedHandler
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	metrics := initRouterMetrics(config.MetricsPrefix)

	r := &Router{
		engine:      engine,
		auth:        auth,
		authH:       handlers.Auth,
		adminH:      handlers.Admin,
		authzH:      handlers.Authz,
		rbacH:       handlers.RBAC,
		categoryH:   handlers.Category,
		userH:       handlers.User,
		clinicH:     handlers.Clinic,
		departmentH: handlers.Department,
		tagH:        handlers.Tag,
		ticketH:     handlers.Ticket,
		metrics:     metrics,
	}

	engine.Use(
		gin.Recovery(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.RequestID(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	if config.MetricsEnabled {
		path := config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	if handlers.Health != nil {
		handlers.Health.RegisterRoutes(engine)
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

// Public routes: login/sync/refresh need no token, and the bootstrap
// endpoints must work against an empty database where nobody can
// authenticate yet. Initialize guards itself against re-runs.
func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.authH.RegisterRoutes(rg)
	r.adminH.RegisterRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.authzH.RegisterRoutes(rg)
	r.rbacH.RegisterRoutes(rg, r.auth)
	r.categoryH.RegisterRoutes(rg, r.auth)
	r.userH.RegisterRoutes(rg, r.auth)
	r.clinicH.RegisterRoutes(rg, r.auth)
	r.departmentH.RegisterRoutes(rg, r.auth)
	r.tagH.RegisterRoutes(rg, r.auth)
	r.ticketH.RegisterRoutes(rg, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	prometheus.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
