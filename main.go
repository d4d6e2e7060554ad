package main

import (
	"github.com/wfunc/yahtzee/config"
	"github.com/wfunc/yahtzee/logger"
	"github.com/wfunc/yahtzee/persistence"
	"github.com/wfunc/yahtzee/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// 统计查询走独立的只读SQL连接
	stats, err := persistence.NewStatsStore(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect stats store: %v", err)
	}

	srv, err := server.NewServer(cfg, db, stats)
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	logger.Log.Infof("Starting yahtzee server on %s", cfg.Server.HTTPAddress)
	if err := srv.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
