package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/joyehuang/atypica-bet/internal/auth"
	"github.com/joyehuang/atypica-bet/internal/config"
	"github.com/joyehuang/atypica-bet/internal/database"
	"github.com/joyehuang/atypica-bet/internal/gemini"
	"github.com/joyehuang/atypica-bet/internal/handlers"
	"github.com/joyehuang/atypica-bet/internal/jobs"
	"github.com/joyehuang/atypica-bet/internal/polymarket"
	"github.com/joyehuang/atypica-bet/internal/repository"
	"github.com/joyehuang/atypica-bet/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// External collaborators
	feedClient := polymarket.NewClient()
	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)

	// Initialize repository and services
	repo := repository.NewMarketRepository(db)
	marketService := services.NewMarketService(repo)
	resolutionService := services.NewResolutionService(db)
	importService := services.NewImportService(db)
	analysisService := services.NewAnalysisService(db, geminiClient)
	positionService := services.NewPositionSyncService(db, feedClient, cfg.Polymarket.WalletAddress)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.App.AdminPassword)
	marketHandler := handlers.NewMarketHandler(marketService, resolutionService)
	importHandler := handlers.NewImportHandler(importService, positionService, feedClient)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// Background jobs
	refreshJob := jobs.NewMarketRefreshJob(repo, importService, feedClient)
	refreshJob.Start(cfg.Jobs.RefreshInterval)
	log.Println("Market refresh job started")

	var syncJob *jobs.PositionSyncJob
	if cfg.Polymarket.WalletAddress != "" {
		syncJob = jobs.NewPositionSyncJob(positionService)
		syncJob.Start(cfg.Jobs.SyncInterval)
		log.Println("Position sync job started")
	}

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	router.POST("/auth/login", authHandler.Login)

	// Public market routes
	router.GET("/api/markets", marketHandler.GetMarkets)
	router.GET("/api/markets/:id", marketHandler.GetMarketByID)
	router.POST("/api/markets/:id/view", marketHandler.RecordView)
	router.POST("/api/markets/:id/share", marketHandler.RecordShare)

	// Admin routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/markets", marketHandler.CreateMarket)
		api.PUT("/markets/:id", marketHandler.UpdateMarket)
		api.DELETE("/markets/:id", marketHandler.DeleteMarket)
		api.POST("/markets/:id/resolve", marketHandler.ResolveMarket)
		api.POST("/markets/:id/analyze", analysisHandler.AnalyzeMarket)

		api.POST("/markets/batch", importHandler.BatchImport)
		api.POST("/markets/sync-positions", importHandler.SyncPositions)
		api.GET("/polymarket/events/slug/:slug", importHandler.GetEventBySlug)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	refreshJob.Stop()
	if syncJob != nil {
		syncJob.Stop()
	}

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
