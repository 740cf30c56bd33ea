package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/memehub/memehub/internal/database"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/seed"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	logger.InitializeForTest()

	// Parse command
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		runSeed(command)
	case "test":
		runSeed(command)
	case "clean":
		runClean()
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed a minimal data set")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}

func runSeed(mode string) {
	log.Printf("Seeding database (%s)...", mode)

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := seed.NewSeeder(database.DB)

	var err error
	if mode == "test" {
		err = seeder.SeedTest()
	} else {
		err = seeder.SeedDev()
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Database seeded successfully")
	log.Println("All seeded accounts use the password: password123")
}

func runClean() {
	log.Println("Removing seed data...")

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := seed.NewSeeder(database.DB).Clean(); err != nil {
		log.Fatalf("Clean failed: %v", err)
	}

	log.Println("Database cleaned")
}
