//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kwhite/taskboard/internal/auth"
	"github.com/kwhite/taskboard/internal/database"
	"github.com/kwhite/taskboard/internal/database/models"
	"github.com/kwhite/taskboard/pkg/config"
	"github.com/kwhite/taskboard/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	orgName := os.Getenv("SEED_ORG_NAME")
	if orgName == "" {
		orgName = "Default Organization"
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "changeme123"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	org := models.Organization{Name: orgName}
	if err := db.Create(&org).Error; err != nil {
		log.Fatalf("failed to create organization: %v", err)
	}

	users := []models.User{
		{Username: "admin", PasswordHash: hash, Role: "admin", OrganizationID: org.ID},
		{Username: "manager", PasswordHash: hash, Role: "manager", OrganizationID: org.ID},
		{Username: "alice", PasswordHash: hash, Role: "user", OrganizationID: org.ID},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatalf("failed to create user %s: %v", users[i].Username, err)
		}
	}

	due := time.Now().Add(48 * time.Hour)
	tasks := []models.Task{
		{Title: "Review onboarding docs", Status: models.TaskStatusTodo, DueDate: &due, UserID: users[2].ID, OrganizationID: org.ID},
		{Title: "Prepare sprint report", Status: models.TaskStatusInProgress, UserID: users[1].ID, OrganizationID: org.ID},
	}
	for i := range tasks {
		if err := db.Create(&tasks[i]).Error; err != nil {
			log.Fatalf("failed to create task %q: %v", tasks[i].Title, err)
		}
	}

	fmt.Printf("Seeded organization %q with users admin/manager/alice (password %q)\n", orgName, password)
}
