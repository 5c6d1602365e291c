package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/recommerce-labs/console/internal/apiserver/handler"
	"github.com/recommerce-labs/console/internal/apiserver/middleware"
	"github.com/recommerce-labs/console/internal/apiserver/upsell"
	"github.com/recommerce-labs/console/internal/auth/jwt"
	"github.com/recommerce-labs/console/internal/common/config"
	"github.com/recommerce-labs/console/pkg/logger"
	"github.com/recommerce-labs/console/pkg/metrics"
	"github.com/recommerce-labs/console/pkg/openai"
	"github.com/recommerce-labs/console/pkg/version"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "Reseller console API server",
		Long:  `API server of the multi-tenant reseller admin console`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "apiserver.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig[config.APIServerConfig](configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger.Info("starting apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := database.InitSuperAdmin(ctx, db, &cfg.SuperAdmin); err != nil {
		zapLogger.Fatal("failed to seed super admin", zap.Error(err))
	}
	if err := database.InitModuleCatalog(ctx, db); err != nil {
		zapLogger.Fatal("failed to seed module catalog", zap.Error(err))
	}

	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		zapLogger.Fatal("failed to initialize JWT service", zap.Error(err))
	}

	aiClient := openai.NewClient(&cfg.OpenAI)
	upsellService := upsell.NewService(db, aiClient, zapLogger, cfg.OpenAI.Timeout)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	m := metrics.New(cfg.Metrics)
	r.Use(m.Middleware())
	r.Use(middleware.RequestRecorder(db, zapLogger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	h := handler.NewHandler(db, jwtService, upsellService, m, zapLogger)
	h.RegisterRoutes(r, middleware.JWTAuthMiddleware(jwtService))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-notifyCtx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}
	zapLogger.Info("stopped")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
