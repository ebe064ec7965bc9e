package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"quantum-redirect/internal/config"
	"quantum-redirect/internal/redirect/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var Version = "dev"

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "quantum",
		Short:        "Three-hop verified redirect service",
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/quantum.yaml", "path to the YAML config file")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newLinksCommand(),
		newClicksCommand(),
	)
	return root
}

// cliEnv is what every subcommand needs before doing its own work.
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadRuntime() (*cliEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &cliEnv{cfg: cfg, logger: logger}, nil
}

// openDatabase opens the SQLite file, creating its directory, and applies pending migrations.
func openDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := database.OpenDB(path,
		database.WithMaxOpenConns(cfg.MaxOpenConns),
		database.WithBusyTimeout(cfg.BusyTimeout),
	)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("database initialized",
		zap.String("path", path),
		zap.Int("max_open_conns", db.Stats().MaxOpenConnections),
	)
	return db, nil
}
