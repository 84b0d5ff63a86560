package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"go-taskboard/backend/internal/config"
	"go-taskboard/backend/internal/database"
	"go-taskboard/backend/internal/keycloak"
	"go-taskboard/backend/internal/logging"
	"go-taskboard/backend/internal/repositories"
	"go-taskboard/backend/internal/routes"
)

func main() {
	configPath := flag.String("config", "", "path to a .toml or .yaml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal("server stopped", "err", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log, os.Stderr)
	log.SetDefault(logger)
	if logger.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, todoRepo, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	router, err := routes.SetupRouter(routes.Dependencies{
		Config:           cfg,
		TodoRepo:         todoRepo,
		IdentityProvider: keycloak.NewClient(cfg.Keycloak),
		DB:               db,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "store", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore は設定されたドライバーのリポジトリを作成します。memory の場合 db は nil です。
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, repositories.TodoRepository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return nil, repositories.NewInMemoryTodoRepository(), nil
	default:
		db, err := database.InitDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, repositories.NewMySQLTodoRepository(db), nil
	}
}
