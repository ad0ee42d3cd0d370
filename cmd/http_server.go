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

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/user-directory/internal"
	"github.com/frahmantamala/user-directory/internal/analytics"
	analyticspg "github.com/frahmantamala/user-directory/internal/analytics/postgres"
	"github.com/frahmantamala/user-directory/internal/auth"
	"github.com/frahmantamala/user-directory/internal/core/events"
	"github.com/frahmantamala/user-directory/internal/directory"
	directorypg "github.com/frahmantamala/user-directory/internal/directory/postgres"
	"github.com/frahmantamala/user-directory/internal/transport/rest"
	"github.com/frahmantamala/user-directory/pkg/logger"
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
	Config           *internal.Config
	DB               *sqlx.DB
	GormDB           *gorm.DB
	Router           *chi.Mux
	EventBus         *events.EventBus
	AuthHandler      *auth.Handler
	DirectoryHandler *directory.Handler
	AnalyticsHandler *analytics.Handler
	Logger           *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.AuthHandler, deps.DirectoryHandler, deps.AnalyticsHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithLevel(os.Getenv("APP_ENV"), config.Logging.Level)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the pgx connection pool instead of opening its own.
	gormDB, err := gorm.Open(gormpg.New(gormpg.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(appLogger)
	registerEventSubscribers(eventBus, appLogger)

	directoryRepo := directorypg.NewRepository(gormDB)
	directoryService := directory.NewService(directoryRepo, eventBus, appLogger)
	directoryHandler := directory.NewHandler(directoryService)

	authService := auth.NewService(directoryRepo, config.Security, appLogger)
	authHandler := auth.NewHandler(authService)

	analyticsRepo := analyticspg.NewRepository(db)
	analyticsHandler := analytics.NewHandler(analyticsRepo)

	return &Dependencies{
		Config:           config,
		Logger:           appLogger,
		DB:               db,
		GormDB:           gormDB,
		Router:           chi.NewRouter(),
		EventBus:         eventBus,
		AuthHandler:      authHandler,
		DirectoryHandler: directoryHandler,
		AnalyticsHandler: analyticsHandler,
	}, nil
}

// registerEventSubscribers hooks up in-process consumers of directory events.
// For now they only produce an audit log line.
func registerEventSubscribers(bus *events.EventBus, appLogger *slog.Logger) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, event events.Event) error {
		appLogger.Info("audit: user created", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})
	bus.Subscribe(events.EventTypeUserTransferred, func(ctx context.Context, event events.Event) error {
		appLogger.Info("audit: user transferred", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})
}

// initDB initializes the database connection
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

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
