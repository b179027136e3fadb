package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/basset-hound/automation/api/handlers"
	"github.com/basset-hound/automation/internal/db"
	"github.com/basset-hound/automation/internal/fillconfig"
	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/internal/repository"
)

var log = logger.Get()

func main() {
	// Get configuration from environment
	port := getEnv("PORT", "5000")
	dbPath := getEnv("DB_PATH", "data/configs.db")
	configDir := getEnv("CONFIG_DIR", fillconfig.DefaultYAMLDir)

	// Ensure the data directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize the fill-config store over repository and YAML tiers
	configRepo := repository.NewConfigRepository(database)
	store := fillconfig.New(
		fillconfig.WithRepository(configRepo),
		fillconfig.WithYAMLDir(configDir),
	)

	// Initialize Gin router
	r := gin.Default()

	// CORS for the routes the extension calls cross-origin
	r.Use(corsMiddleware())

	// Routes
	handlers.NewPageHandler().RegisterRoutes(r)
	handlers.NewConfigHandler(store).RegisterRoutes(r)
	handlers.RegisterMetricsRoute(r)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("Shutting down server...")
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Infof("Starting config server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// corsMiddleware opens /submit and /config to cross-origin callers. The
// extension fetches configs from whatever page it is injected into.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/submit", "/config":
		default:
			c.Next()
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
