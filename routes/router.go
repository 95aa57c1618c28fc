package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"polling-backend/api"
	"polling-backend/middleware"
	"polling-backend/ratelimit"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Polls        api.PollService
	DB           *gorm.DB
	Limiter      ratelimit.Limiter // nil disables rate limiting
	AllowOrigins []string
	ShowErrors   bool
	Version      string
	Log          *slog.Logger

	// TrustedProxies are the only peers whose X-Forwarded-For is believed.
	TrustedProxies []string
}

// Server wraps the HTTP server started by StartServer.
type Server struct {
	*http.Server
}

// SetupRouter configures the gin engine with middleware and every /api route.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()

	if err := router.SetTrustedProxies(d.TrustedProxies); err != nil {
		d.Log.Warn("invalid trusted proxies, trusting none", slog.Any("error", err))
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(
		middleware.RequestID(),
		middleware.Logging(d.Log),
		gin.Recovery(),
		cors.New(corsConfig(d.AllowOrigins)),
	)

	group := router.Group("/api")
	if d.Limiter != nil {
		group.Use(middleware.RateLimit(d.Limiter, d.Log))
	}

	api.NewHealthController(d.DB, d.Version).RegisterRoutes(group)
	api.NewPollController(d.Polls, d.ShowErrors, d.Log).RegisterRoutes(group)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "not found"})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// StartServer serves handler on addr in the background. The returned channel
// yields a listen error, if any, and is closed once the server stops.
func StartServer(addr string, handler http.Handler, log *slog.Logger) (*Server, <-chan error) {
	srv := &Server{
		&http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	errs := make(chan error, 1)
	go func() {
		defer close(errs)

		log.Info("server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	return srv, errs
}
