package main

import (
	"context"
	"flag"
	"log"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

func main() {
	username := flag.String("user", "", "account to reset (defaults to ADMIN_USERNAME)")
	password := flag.String("password", "", "new password (defaults to ADMIN_PASSWORD)")
	flag.Parse()

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *username == "" {
		*username = cfg.AdminUsername
	}
	if *password == "" {
		*password = cfg.AdminPassword
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, logger.Warn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepo(db)
	ctx := context.Background()

	// 3. Find user
	user, err := users.FindByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("User %s not found in database: %v", *username, err)
	}

	// 4. Hash new password
	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	// 5. Update and end existing sessions
	if err := users.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		log.Fatalf("Failed to update password in DB: %v", err)
	}
	if err := users.UpdateSession(ctx, user.ID, uuid.New().String(), nil); err != nil {
		log.Fatalf("Failed to reset sessions: %v", err)
	}

	log.Printf("Password for %s has been reset", user.Username)
}
