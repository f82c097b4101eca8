package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/server/handlers"
	"github.com/mamadbah2/footprint/pkg/metrics"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Survey    *handlers.SurveyHandler
	Auth      *handlers.AuthHandler
	Emissions *handlers.EmissionsHandler
	Locations *handlers.LocationsHandler
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	Tokens   handlers.TokenParser
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(opts.Metrics))
	r.Use(handlers.Authenticate(opts.Tokens))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.GET("/locations", h.Locations.List)

	surveys := r.Group("/surveys")
	surveys.POST("", h.Survey.Create)
	surveys.GET("/:id", h.Survey.Get)
	surveys.PUT("/:id/location", h.Survey.SetLocation)
	surveys.PUT("/:id/transportation", h.Survey.SetTransportation)
	surveys.PUT("/:id/diet", h.Survey.SetDiet)
	surveys.PUT("/:id/energy", h.Survey.SetEnergy)
	surveys.POST("/:id/continue", h.Survey.Continue)
	surveys.POST("/:id/goto/:step", h.Survey.GoTo)
	surveys.GET("/:id/results", h.Survey.Results)

	auth := r.Group("/auth")
	auth.POST("/signin", h.Auth.SignIn)
	auth.POST("/signup", h.Auth.SignUp)

	r.GET("/me/emissions", h.Emissions.Mine)
	r.GET("/community", h.Emissions.Community)
	r.GET("/community/history", h.Emissions.History)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func metricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.RecordAPIRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
