package main

import (
	"log/slog"
	"net/http"
	"os"

	"battery-savings/internal/api/handlers"
	"battery-savings/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	analyzeHandler := handlers.NewAnalyzeHandler(logger)
	v1 := router.Group("/api/v1")
	v1.POST("/analyze", analyzeHandler.Analyze)

	handler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	logger.Info("starting API server", "port", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
