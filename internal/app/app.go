// Package app wires configuration into a gateway, storage and services. It is
// shared by the server and the seed command.
package app

import (
	"alcyxob/coach-dashboard/internal/config"
	"alcyxob/coach-dashboard/internal/repository"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"alcyxob/coach-dashboard/internal/repository/mongo"
	"alcyxob/coach-dashboard/internal/repository/sqldb"
	"alcyxob/coach-dashboard/internal/service"
	"alcyxob/coach-dashboard/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Services holds every service the handlers need.
type Services struct {
	Auth      service.AuthService
	Programs  service.ProgramService
	Editor    service.EditorService
	Nutrition service.NutritionService
	Clients   service.ClientService
	Admin     service.AdminService
	Export    service.ExportService
}

// App is a configured set of services with the resources behind them.
// The caller must defer Close.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Gateway  repository.Gateway
	Files    storage.FileStorage
	Services Services

	closers []func() error
}

// New opens the gateway and storage named by cfg and builds the services.
func New(ctx context.Context, cfg config.Config, logOut io.Writer) (*App, error) {
	logger := NewLogger(cfg.Log.Level, logOut)

	gw, closeGateway, err := OpenGateway(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s gateway: %w", cfg.Database.Driver, err)
	}
	a := &App{Config: cfg, Logger: logger, Gateway: gw}
	if closeGateway != nil {
		a.closers = append(a.closers, closeGateway)
	}

	files, err := NewStorage(cfg.S3, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	a.Files = files
	a.Services = NewServices(cfg, gw, files, logger)
	return a, nil
}

// Close releases the gateway connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewServices builds the service graph over gw.
func NewServices(cfg config.Config, gw repository.Gateway, files storage.FileStorage, logger service.Logger) Services {
	clock := service.RealClock{}
	ids := service.UUIDGenerator{}
	editorOpts := service.EditorOptions{
		SessionTTL:  cfg.Editor.SessionTTL,
		MaxSessions: cfg.Editor.MaxSessions,
	}

	programs := service.NewProgramService(gw, ids, logger)
	nutrition := service.NewNutritionService(gw, editorOpts, clock, ids, logger)
	return Services{
		Auth:      service.NewAuthService(gw, cfg.JWT.Secret, cfg.JWT.Expiration, clock),
		Programs:  programs,
		Editor:    service.NewEditorService(gw, programs, editorOpts, clock, ids, logger),
		Nutrition: nutrition,
		Clients:   service.NewClientService(gw, logger),
		Admin:     service.NewAdminService(gw, logger),
		Export: service.NewExportService(programs, nutrition, files, service.ExportOptions{
			Prefix:    cfg.Export.Prefix,
			URLExpiry: cfg.Export.URLExpiry,
		}, clock, ids, logger),
	}
}

// OpenGateway creates the gateway for cfg.Driver. The returned close func may be nil.
func OpenGateway(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (repository.Gateway, func() error, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory gateway, data is lost on exit")
		return memory.NewGateway(), nil, nil
	case "mongo":
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.Name)
		// Run index creation in the background
		go func() {
			ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
			defer cancel()
			mongo.EnsureIndexes(ictx, db)
			logger.Info("index creation process completed")
		}()
		logger.Info("database connection established", "driver", cfg.Driver, "database", cfg.Name)
		return mongo.NewMongoGateway(db), func() error { return mongo.DisconnectDB(client) }, nil
	case "sqlite", "postgres", "postgresql":
		db, err := sqldb.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connection established", "driver", cfg.Driver)
		return sqldb.NewGormGateway(db), sqlDB.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
}

// NewStorage returns S3 storage when a bucket is configured and in-memory
// storage otherwise.
func NewStorage(cfg config.S3Config, logger *slog.Logger) (storage.FileStorage, error) {
	if cfg.BucketName == "" {
		logger.Warn("no s3 bucket configured, exports are kept in memory")
		return storage.NewMemoryStorage("memory://exports"), nil
	}
	return storage.NewS3Storage(cfg)
}

// NewLogger returns a text logger at level (debug, info, warn or error).
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
