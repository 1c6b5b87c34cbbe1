package main

import (
	"log"

	"github.com/robfig/cron/v3"
	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/controllers"
	"github.com/sokopay/SokoPay/routes"
	"github.com/sokopay/SokoPay/utils"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	// Initialize database
	config.InitDB()

	// Daily sales digest for merchants, evenings local time
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 18 * * *", controllers.RunDailySalesDigest); err != nil {
		utils.LogError("Failed to schedule daily digest: %v", err)
		log.Fatal("Failed to schedule daily digest:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Set up router
	router := routes.SetupRouter()

	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	utils.LogInfo("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
