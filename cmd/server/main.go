package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/campushq/claimflow/internal/application/dispatcher"
	"github.com/campushq/claimflow/internal/application/service"
	"github.com/campushq/claimflow/internal/config"
	"github.com/campushq/claimflow/internal/domain/event"
	"github.com/campushq/claimflow/internal/infrastructure/persistence/repository"
	"github.com/campushq/claimflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/campushq/claimflow/internal/interfaces/http"
	"github.com/campushq/claimflow/internal/report"
	"github.com/campushq/claimflow/pkg/database"
	"github.com/campushq/claimflow/pkg/utils"
)

func main() {
	// .env values feed the CLAIMFLOW_* overrides picked up by config.Load
	_ = gotenv.Load()

	configPath := os.Getenv("CLAIMFLOW_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting claim approval service",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and transaction manager
	txManager := sqlite.NewDB(db.DB, logger)
	policyRepo := repository.NewPolicyRepository(db.DB, logger)
	claimRepo := repository.NewClaimRepository(db.DB, logger)

	// Initialize event dispatcher and subscribers
	kvLogger := utils.NewKVLogger(logger)
	events := dispatcher.NewDispatcher(kvLogger)
	defer events.Close()
	subscribeLifecycleLogger(events, logger)

	// Initialize services
	policyService := service.NewPolicyService(policyRepo, txManager, events, kvLogger)
	claimService := service.NewClaimService(policyRepo, claimRepo, txManager, events, kvLogger)
	approvalService := service.NewApprovalService(claimService, policyRepo, kvLogger)
	reportService := service.NewReportService(claimRepo, txManager, kvLogger)

	exporter := report.NewExcelExporter(cfg.Report.ExportDir, cfg.Report.SheetName, logger)

	// Initialize HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, policyService, claimService, approvalService, reportService, exporter, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}

	logger.Info("Server shut down cleanly")
}

// subscribeLifecycleLogger records claim and policy lifecycle events. It is
// the single subscriber for now; payment notifications would hang off the
// same dispatcher.
func subscribeLifecycleLogger(events dispatcher.Dispatcher, logger *zap.Logger) {
	handler := func(ctx context.Context, evt *event.Event) error {
		logger.Info("Domain event",
			zap.String("type", evt.Type.String()),
			zap.Int64("subject_id", evt.SubjectID),
			zap.Any("payload", evt.Payload))
		return nil
	}

	for _, eventType := range []event.Type{
		event.TypeClaimSubmitted,
		event.TypeClaimAutoApproved,
		event.TypeClaimApproved,
		event.TypeClaimRejected,
		event.TypeClaimPaid,
		event.TypePolicyCreated,
		event.TypePolicyUpdated,
		event.TypePolicyDeactivated,
	} {
		events.Subscribe(eventType, "lifecycle_logger", handler)
	}
}
