package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"sixdegrees-service/internal/clickguard"
	"sixdegrees-service/internal/config"
	"sixdegrees-service/internal/db"
	igrpc "sixdegrees-service/internal/grpc"
	"sixdegrees-service/internal/handlers"
	"sixdegrees-service/internal/jobs"
	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/middleware"
	"sixdegrees-service/internal/observability"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/storage"
	"sixdegrees-service/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the internal gRPC server and the expiry scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		return err
	}

	publisher := rabbitmq.NewPublisherOrNoop(cfg.AMQPURL, cfg.EventsExchange)
	defer publisher.Close()
	auditPublisher := rabbitmq.NewPublisherOrNoop(cfg.AMQPURL, cfg.LogsExchange)
	defer auditPublisher.Close()

	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterDomainMetrics()

	userRepo := repositories.NewUserRepository(database)
	connectionRepo := repositories.NewConnectionRepository(database, publisher)
	requestRepo := repositories.NewRequestRepository(database, publisher)
	chainRepo := repositories.NewChainRepository(database, publisher)
	walletRepo := repositories.NewWalletRepository(database)
	swipeRepo := repositories.NewSwipeRepository(database, publisher)

	guard, closeGuard := newClickGuard(ctx, cfg)
	defer closeGuard()

	userService := services.NewUserService(userRepo, connectionRepo, requestRepo, newAvatarSigner(ctx, cfg), cfg.Rewards.SignupBonusCredits)
	requestService := services.NewRequestService(requestRepo, chainRepo, cfg.Rewards)
	chainService := services.NewChainService(requestRepo, chainRepo, guard, cfg.Rewards, cfg.Links.ClickDedupeWindow)
	walletService := services.NewWalletService(walletRepo, cfg.CreditPackages, publisher)
	swipeService := services.NewSwipeService(swipeRepo, userRepo, cfg.Swipes)

	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.ServiceName, cfg.Environment)

	if err := jobs.NewExpiryJob(requestService).Start(ctx, cfg.ExpirySchedule); err != nil {
		return err
	}

	if _, err := igrpc.StartGRPCServer(ctx, cfg.GRPCAddr, igrpc.NewChainGRPCServer(userRepo, requestRepo)); err != nil {
		return err
	}

	shareLimiter := middleware.NewRateLimiter(cfg.Links.RateLimitRPS, cfg.Links.RateLimitBurst)
	shareLimiter.StartCleanup(10*time.Minute, ctx.Done())

	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics("/metrics", "/healthz"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, handlers.Handlers{
		Users:       handlers.NewUserHandler(userService, audit),
		Connections: handlers.NewConnectionHandler(connectionRepo, userService, audit),
		Requests:    handlers.NewRequestHandler(requestService, chainService, audit),
		Chains:      handlers.NewChainHandler(chainService, audit),
		Wallet:      handlers.NewWalletHandler(walletService, audit),
		Swipes:      handlers.NewSwipeHandler(swipeService, audit),
	}, cfg.JWTSecret, shareLimiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// newClickGuard prefers Redis so click dedupe is shared between replicas.
func newClickGuard(ctx context.Context, cfg *config.Config) (clickguard.Guard, func()) {
	if cfg.RedisURL == "" {
		return clickguard.NewMemoryGuard(), func() {}
	}
	guard, err := clickguard.NewRedisGuard(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable; using in-memory click dedupe", "error", err)
		return clickguard.NewMemoryGuard(), func() {}
	}
	return guard, func() {
		if err := guard.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
}

func newAvatarSigner(ctx context.Context, cfg *config.Config) storage.AvatarSigner {
	if cfg.Storage.AvatarBucket == "" {
		slog.Warn("AVATAR_BUCKET not set; avatar uploads disabled")
		return nil
	}
	signer, err := storage.NewS3AvatarSigner(ctx, cfg.Storage.AWSRegion, cfg.Storage.AvatarBucket, cfg.Storage.PresignTTL)
	if err != nil {
		slog.Warn("failed to initialize S3 avatar signer", "error", err)
		return nil
	}
	return signer
}
