package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/reframeapp/reframe/internal/config"
	"github.com/reframeapp/reframe/internal/database"
	"github.com/reframeapp/reframe/internal/migration"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

var (
	dir     = flag.String("dir", "migrations", "Directory holding SQL migrations")
	dryRun  = flag.Bool("dry-run", false, "List the migrations that would run without connecting")
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.InitLogger(cfg.Log.Level)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *dryRun {
		files, err := migration.ListMigrations(*dir)
		if err != nil {
			logger.WithError(err).Fatal("Failed to list migrations")
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.Log.Level,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := migration.NewRunner(dbManager, logger).RunMigrations(*dir); err != nil {
		logger.WithError(err).Fatal("Migrations failed")
	}
	logger.Info("Migrations completed successfully")
}
