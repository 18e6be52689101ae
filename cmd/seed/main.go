package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/reframeapp/reframe/internal/config"
	"github.com/reframeapp/reframe/internal/database"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/internal/repository"
	"github.com/reframeapp/reframe/internal/services"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

// The first admin cannot be granted through the API, which itself requires
// an admin. This tool grants roles directly.
var (
	users   = flag.String("users", "", "Comma-separated user IDs to grant the role to")
	role    = flag.String("role", models.RoleAdmin, "Role to grant (admin, moderator, user)")
	revoke  = flag.Bool("revoke", false, "Remove the role instead of adding it")
	dryRun  = flag.Bool("dry-run", false, "Validate and print the changes without applying them")
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

	changes := buildChanges(*users, *role, *revoke)
	if len(changes) == 0 {
		logger.Fatal("No users given, pass -users")
	}

	if *dryRun {
		for _, change := range changes {
			if err := change.Validate(); err != nil {
				logger.WithError(err).Fatal("Invalid change")
			}
			logger.WithFields(logrus.Fields{
				"user_id": change.UserID,
				"role":    change.Role,
				"action":  change.Action,
			}).Info("Would apply role change")
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

	repos := repository.NewRepositoryManager(dbManager.DB)
	roles := services.NewRoleService(repos.UserRole, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	applied, err := roles.ApplyBatch(ctx, "seed", changes)
	if err != nil {
		logger.WithError(err).Fatal("Role seeding failed")
	}
	logger.WithField("applied", applied).Info("Role seeding completed")
}

func buildChanges(userList, role string, revoke bool) []models.RoleChange {
	action := models.RoleActionAdd
	if revoke {
		action = models.RoleActionRemove
	}

	var changes []models.RoleChange
	for _, id := range strings.Split(userList, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		changes = append(changes, models.RoleChange{UserID: id, Role: role, Action: action})
	}
	return changes
}
