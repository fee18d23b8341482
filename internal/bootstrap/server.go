package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/travelagent/api"
	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/logger"
	"github.com/Domenick1991/travelagent/internal/service/booking"
	"github.com/Domenick1991/travelagent/internal/service/destinations"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the services the HTTP surface exposes. Limiter may be nil.
type Dependencies struct {
	Bookings     booking.BookingUseCase
	Destinations destinations.DestinationUseCase
	Webhooks     api.WebhookParser
	Limiter      api.Limiter
	// Checks are probed by /health. A failing check turns the response into 503.
	Checks map[string]func(ctx context.Context) error
}

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// Run starts the gRPC health server and the HTTP API and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, deps Dependencies, log *zap.Logger) error {
	s := newServers(cfg, deps, log)

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info("servers started", zap.String("http", cfg.HTTP.Address), zap.String("grpc", cfg.GRPC.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, deps Dependencies, log *zap.Logger) *Servers {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           NewRouter(cfg, deps, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires every HTTP route.
func NewRouter(cfg *config.Config, deps Dependencies, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(logger.Recovery(log), logger.GinMiddleware(log))

	router.GET("/health", healthHandler(deps.Checks))

	if cfg.HTTP.SwaggerDir != "" {
		openapi := filepath.Join(cfg.HTTP.SwaggerDir, "openapi.json")
		ui := httpSwagger.Handler(httpSwagger.URL("/docs/openapi.json"))
		router.GET("/docs/*any", func(c *gin.Context) {
			if c.Param("any") == "/openapi.json" {
				c.File(openapi)
				return
			}
			ui.ServeHTTP(c.Writer, c.Request)
		})
	}

	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	limiter := deps.Limiter
	if !cfg.RateLimit.Enabled {
		limiter = nil
	}

	apiGroup := router.Group("/api")

	api.NewDestinationHandler(deps.Destinations).Register(
		apiGroup.Group("/destinations", api.RateLimit(limiter, "search", cfg.RateLimit.MaxRequests, window, log)))

	api.NewBookingHandler(deps.Bookings).Register(apiGroup.Group("/bookings",
		api.RequireUser(),
		api.ForMethod(http.MethodPost, api.RateLimit(limiter, "booking", cfg.RateLimit.BookingMaxReqs, window, log))))

	api.NewWebhookHandler(deps.Webhooks, deps.Bookings, log).Register(apiGroup.Group("/webhooks"))

	api.NewAdminHandler(deps.Bookings, deps.Destinations).Register(
		apiGroup.Group("/admin", api.RequireAdmin(cfg.Admin.APIKey)))

	return router
}

func healthHandler(checks map[string]func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
