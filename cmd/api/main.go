package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/succession-vault/internal/application/admin"
	assetapp "github.com/succession-vault/internal/application/asset"
	"github.com/succession-vault/internal/application/audit"
	"github.com/succession-vault/internal/application/claim"
	"github.com/succession-vault/internal/application/inactivity"
	"github.com/succession-vault/internal/application/nominee"
	"github.com/succession-vault/internal/application/user"
	"github.com/succession-vault/internal/config"
	"github.com/succession-vault/internal/infrastructure/dynamo"
	"github.com/succession-vault/internal/infrastructure/metrics"
	s3infra "github.com/succession-vault/internal/infrastructure/s3"
	"github.com/succession-vault/internal/infrastructure/smtp"
	"github.com/succession-vault/internal/infrastructure/sns"
	"github.com/succession-vault/internal/pkg/clock"
	transporthttp "github.com/succession-vault/internal/transport/http"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	tables := cfg.DynamoTables
	userRepo := dynamo.NewUserRepo(dynamoClient, tables.Users)
	nomineeRepo := dynamo.NewNomineeRepo(dynamoClient, tables.Nominees)
	assetRepo := dynamo.NewAssetRepo(dynamoClient, tables.Assets, tables.Nominees)
	cascadeRepo := dynamo.NewCascadeRepo(dynamoClient, tables.Nominees, tables.Assets)
	requestRepo := dynamo.NewVerificationRepo(dynamoClient, tables.VerificationRequests)
	activityRepo := dynamo.NewActivityLogRepo(dynamoClient, tables.ActivityLogs)

	documents := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.S3BucketName)
	publisher := sns.NewTriggerPublisher(awsCfg, cfg)
	mailer := smtp.NewMailer(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clk := clock.System{}
	recorder := audit.NewRecorder(activityRepo, clk, m)

	deps := &transporthttp.Deps{
		Users: user.NewService(user.ServiceDeps{
			UserRepo:             userRepo,
			Audit:                recorder,
			Clock:                clk,
			DefaultThresholdDays: cfg.DefaultInactivityDays,
		}),
		Nominees: nominee.NewService(nominee.ServiceDeps{
			UserRepo:    userRepo,
			NomineeRepo: nomineeRepo,
			AssetRepo:   assetRepo,
			CascadeRepo: cascadeRepo,
			Audit:       recorder,
			Clock:       clk,
		}),
		Assets: assetapp.NewService(assetapp.ServiceDeps{
			AssetRepo:   assetRepo,
			UserRepo:    userRepo,
			NomineeRepo: nomineeRepo,
			Documents:   documents,
			Audit:       recorder,
			Clock:       clk,
		}),
		Claims: claim.NewService(claim.ServiceDeps{
			NomineeRepo: nomineeRepo,
			UserRepo:    userRepo,
			RequestRepo: requestRepo,
			Documents:   documents,
			Mailer:      mailer,
			Audit:       recorder,
			Clock:       clk,
			Metrics:     m,
		}),
		Admin: admin.NewService(admin.ServiceDeps{
			UserRepo:     userRepo,
			NomineeRepo:  nomineeRepo,
			AssetRepo:    assetRepo,
			RequestRepo:  requestRepo,
			ActivityRepo: activityRepo,
			Documents:    documents,
		}),
		Gatherer: reg,
	}

	monitor := inactivity.NewMonitor(inactivity.MonitorDeps{
		UserRepo:  userRepo,
		Publisher: publisher,
		Clock:     clk,
		Metrics:   m,
		Interval:  cfg.InactivitySweepInterval,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
