// cmd/seed/main.go
package main

import (
	"github.com/sirupsen/logrus"

	"github.com/javajoker/loan-manager/internal/config"
	"github.com/javajoker/loan-manager/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.Fatal("Failed to run migrations: ", err)
	}

	if _, err := database.SeedSampleApplications(db); err != nil {
		logrus.Fatal("Failed to seed database: ", err)
	}
}
