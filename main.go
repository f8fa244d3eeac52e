// Command eva-finance-api runs the admission HTTP endpoint and the
// read-only operator API.
package main

import (
	"log"
	"net/http"

	"eva-finance/internal/api"
	"eva-finance/internal/config"
	"eva-finance/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[API] no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] configuration error: %v", err)
	}

	db, err := database.Initialize(cfg.DatabaseDialect, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatalf("[API] failed to connect to store: %v", err)
	}

	r := gin.Default()

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api/v1")
	api.SetupRoutes(apiGroup, db)
	// Also mounted at the root path so ingestion conductors pointed at
	// EVA_ADMISSION_URL without the /api/v1 prefix still reach
	// POST /intake/message.
	api.SetupRoutes(&r.RouterGroup, db)

	log.Printf("[API] listening on port %s (environment=%s)", cfg.Port, cfg.Environment)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
