package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"orders-payments-saga/config"
	"orders-payments-saga/internal/app"
)

func main() {
	// Config
	if _, err := os.Stat(".env"); err == nil {
		err = godotenv.Load()
		if err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	app.RunOrders(cfg)
}
