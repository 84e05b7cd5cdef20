package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clivefinesse/jobtracker/internal/api"
	"github.com/clivefinesse/jobtracker/internal/app"
	iauth "github.com/clivefinesse/jobtracker/internal/auth"
	"github.com/clivefinesse/jobtracker/internal/database"
	"github.com/clivefinesse/jobtracker/internal/services"
	"github.com/clivefinesse/jobtracker/pkg/logger"
	"github.com/clivefinesse/jobtracker/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("jobtracker-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := database.Open(cfg.DatabaseServiceConfig())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDatabase(db, log)

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	jwtService, err := iauth.NewJWTService(cfg.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	accountTokens, err := iauth.NewAccountTokenService(cfg.AccountTokenServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise account token service: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; verification and reset emails will not be delivered")
	}

	accountSvc, err := services.NewAccountService(db, jwtService, accountTokens, mailer, services.AccountServiceConfig{
		FrontendURL: cfg.URLs.Frontend,
		BackendURL:  cfg.URLs.Backend,
	})
	if err != nil {
		return fmt.Errorf("initialise account service: %w", err)
	}

	applicationSvc, err := services.NewApplicationService(db, nil)
	if err != nil {
		return fmt.Errorf("initialise application service: %w", err)
	}

	router, err := api.NewRouter(api.Deps{
		DB:           db,
		JWT:          jwtService,
		Accounts:     accountSvc,
		Applications: applicationSvc,
		FrontendURL:  cfg.URLs.Frontend,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("graceful shutdown: %w", err))
	}

	if err, ok := <-serverErr; ok && err != nil {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("server error: %w", err))
	}

	if shutdownErr != nil {
		return shutdownErr
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("access underlying database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
