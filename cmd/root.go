package cmd

import (
	"context"
	"fmt"
	"log"

	"task-marketplace/pkg/database"
	"task-marketplace/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "task-marketplace",
	Short: "Bid and payment lifecycle service for the task marketplace",
	Long: `task-marketplace owns the bid and payment lifecycles: it serves the HTTP
API, drains the job queue, and runs the scheduled reconciliation sweeps.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".env", "env file with configuration overrides")
}

// runtime is what every subcommand needs before it can do work.
type runtime struct {
	config *utils.Config
	log    *zap.Logger
	db     database.PgxIface
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.log.Sync()
}

func bootstrap(ctx context.Context) (*runtime, error) {
	config, err := utils.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using production logger.", err)
		logger, _ = zap.NewProduction()
	}

	db, err := database.InitDB(ctx, config.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		_ = logger.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("Database connected successfully",
		zap.String("host", config.Database.Host),
		zap.String("name", config.Database.Name),
	)

	return &runtime{config: config, log: logger, db: db}, nil
}
