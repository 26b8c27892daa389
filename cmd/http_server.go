package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicworks/revenue-tracker/internal"
	"github.com/civicworks/revenue-tracker/internal/attachment"
	attachmentpg "github.com/civicworks/revenue-tracker/internal/attachment/postgres"
	"github.com/civicworks/revenue-tracker/internal/auth"
	authpg "github.com/civicworks/revenue-tracker/internal/auth/postgres"
	"github.com/civicworks/revenue-tracker/internal/budget"
	budgetpg "github.com/civicworks/revenue-tracker/internal/budget/postgres"
	"github.com/civicworks/revenue-tracker/internal/core/events"
	"github.com/civicworks/revenue-tracker/internal/expenditure"
	expenditurepg "github.com/civicworks/revenue-tracker/internal/expenditure/postgres"
	"github.com/civicworks/revenue-tracker/internal/export"
	exportpg "github.com/civicworks/revenue-tracker/internal/export/postgres"
	"github.com/civicworks/revenue-tracker/internal/mda"
	mdapg "github.com/civicworks/revenue-tracker/internal/mda/postgres"
	"github.com/civicworks/revenue-tracker/internal/notification"
	notificationpg "github.com/civicworks/revenue-tracker/internal/notification/postgres"
	"github.com/civicworks/revenue-tracker/internal/retirement"
	retirementpg "github.com/civicworks/revenue-tracker/internal/retirement/postgres"
	"github.com/civicworks/revenue-tracker/internal/transport/rest"
	"github.com/civicworks/revenue-tracker/internal/user"
	userpg "github.com/civicworks/revenue-tracker/internal/user/postgres"
	"github.com/civicworks/revenue-tracker/internal/workflow"
	workflowpg "github.com/civicworks/revenue-tracker/internal/workflow/postgres"
	"github.com/civicworks/revenue-tracker/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	log := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	bus := events.NewEventBus(log)

	// Auth
	authRepo := authpg.NewAuthRepository(gormDB)
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	// Users
	userRepo := userpg.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, authService, log)
	userHandler := user.NewHandler(userService)

	// MDAs
	mdaRepo := mdapg.NewMDARepository(gormDB)
	mdaService := mda.NewService(mdaRepo, log)
	mdaHandler := mda.NewHandler(mdaService)

	// Budgets
	budgetRepo := budgetpg.NewBudgetRepository(gormDB)
	budgetService := budget.NewService(budgetRepo, bus, log)
	budgetHandler := budget.NewHandler(budgetService)

	// Expenditures
	expenditureRepo := expenditurepg.NewExpenditureRepository(gormDB)
	expenditureService := expenditure.NewService(expenditureRepo, budgetRepo, log)
	expenditureHandler := expenditure.NewHandler(expenditureService)

	// Workflow engine
	historyRepo := workflowpg.NewHistoryRepository(gormDB)
	directory := workflowpg.NewApproverDirectory()
	engine := workflow.NewEngine(gormDB, historyRepo, directory, bus, log,
		workflow.NewBudgetStore(),
		workflow.NewExpenditureStore(),
	)
	workflowHandler := workflow.NewHandler(engine)

	// Retirements
	retirementRepo := retirementpg.NewRetirementRepository(gormDB)
	retirementService := retirement.NewService(retirementRepo, expenditureRepo, log)
	retirementHandler := retirement.NewHandler(retirementService)

	// Attachments
	attachmentRepo := attachmentpg.NewAttachmentRepository(gormDB)
	attachmentService := attachment.NewService(attachmentRepo, config.Storage.UploadDir, config.Storage.MaxUploadSize, log)
	attachmentHandler := attachment.NewHandler(attachmentService)

	// Notifications
	notificationRepo := notificationpg.NewNotificationRepository(gormDB)
	notificationService := notification.NewService(notificationRepo, log)
	notificationHandler := notification.NewHandler(notificationService)
	notification.NewSubscriber(notificationService, log).Register(bus)

	// Approved expenditures move a line item's utilization, so run the
	// early-warning calculator after each final approval.
	bus.Subscribe(events.EventTypeWorkflowApproved, func(ctx context.Context, event events.Event) error {
		we, ok := event.(*events.WorkflowEvent)
		if !ok || we.EntityKind != string(workflow.KindExpenditure) {
			return nil
		}
		exp, err := expenditureService.GetExpenditure(we.EntityID)
		if err != nil {
			return err
		}
		_, err = budgetService.CheckThresholds(ctx, exp.LineItemID)
		return err
	})

	// Reports
	reportRepo := exportpg.NewReportRepository(gormDB)
	exportService := export.NewService(reportRepo, log)
	exportHandler := export.NewHandler(exportService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:         authHandler,
		User:         userHandler,
		MDA:          mdaHandler,
		Budget:       budgetHandler,
		Expenditure:  expenditureHandler,
		Workflow:     workflowHandler,
		Retirement:   retirementHandler,
		Attachment:   attachmentHandler,
		Notification: notificationHandler,
		Export:       exportHandler,
	}, config.Server.AllowedOrigins, log)

	return &Dependencies{
		Config: config,
		DB:     db,
		GormDB: gormDB,
		Router: router,
		Logger: log,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-pooled pgx connection so both
// access paths share one pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
