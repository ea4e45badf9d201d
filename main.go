package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/seo-insight/backend/analyzer"
	"github.com/seo-insight/backend/audit"
	"github.com/seo-insight/backend/middleware"
	"github.com/seo-insight/backend/recommend"
	"github.com/seo-insight/backend/scraper"
	"github.com/seo-insight/backend/stats"
	"github.com/seo-insight/backend/tasks"
)

// pipelineTimeout bounds one full scrape + audit + analyze run.
const pipelineTimeout = 3 * time.Minute

type server struct {
	scraper *scraper.Scraper
	auditor *audit.Runner
	store   *tasks.Store
	tracker *stats.Tracker
}

func loadEnv() {
	// Try to load .env.development first (for local development)
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

func setupGinMode() {
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func envFloat(name string, fallback float64) float64 {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func main() {
	loadEnv()
	setupGinMode()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := tasks.NewStore(dataDir)
	if err != nil {
		log.Fatal("Failed to initialize task store: ", err)
	}

	tracker, err := stats.NewTracker(dataDir, os.Getenv("DEV_MODE") == "true")
	if err != nil {
		log.Fatal("Failed to initialize statistics: ", err)
	}

	srv := &server{
		scraper: scraper.New(),
		auditor: audit.NewRunner(os.Getenv("LIGHTHOUSE_BIN"), 90*time.Second),
		store:   store,
		tracker: tracker,
	}

	// Finished tasks older than a week are purged daily.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if removed := store.Cleanup(7 * 24 * time.Hour); removed > 0 {
				log.Printf("Purged %d expired tasks", removed)
			}
		}
	}()

	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimit(envFloat("RATE_LIMIT_RPS", 2), envInt("RATE_LIMIT_BURST", 5)))
	r.Use(middleware.Stats(tracker))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/analyze", srv.handleAnalyze)
		api.GET("/status/:id", srv.handleStatus)

		api.GET("/statistics", func(c *gin.Context) {
			c.JSON(http.StatusOK, tracker.Snapshot())
		})
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	log.Printf("Server starting on http://localhost:%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

type analyzeRequest struct {
	URL      string   `json:"url" binding:"required,url"`
	Keywords []string `json:"keywords"`
}

// handleAnalyze runs the whole pipeline synchronously: scrape the page,
// analyze it, audit it, generate recommendations, and persist the task.
func (s *server) handleAnalyze(c *gin.Context) {
	log.Printf("Analyze request received from: %s\n", c.ClientIP())

	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid URL provided",
		})
		return
	}
	c.Set(middleware.AnalyzeTargetKey, request.URL)

	task, err := s.store.Create(request.URL, request.Keywords)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create task: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pipelineTimeout)
	defer cancel()

	results, err := s.runPipeline(ctx, request.URL, request.Keywords)
	if err != nil {
		s.store.Fail(task.ID, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"task_id": task.ID,
			"status":  tasks.StatusFailed,
			"error":   "Failed to analyze URL: " + err.Error(),
		})
		return
	}

	completed, err := s.store.Complete(task.ID, results)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to persist results: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": completed.ID,
		"status":  completed.Status,
		"results": completed.Results,
	})
}

func (s *server) runPipeline(ctx context.Context, url string, keywords []string) (*tasks.Results, error) {
	snapshot, err := s.scraper.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	analysis, err := analyzer.Analyze(snapshot, keywords)
	if err != nil {
		return nil, err
	}

	scores, err := s.auditor.Run(ctx, url)
	if err != nil {
		return nil, err
	}

	return &tasks.Results{
		Analysis:        *analysis,
		Audit:           scores,
		Recommendations: recommend.Generate(*analysis, scores),
	}, nil
}

func (s *server) handleStatus(c *gin.Context) {
	task, err := s.store.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"task_id": task.ID,
		"status":  task.Status,
		"results": task.Results,
	}
	if task.Error != "" {
		response["error"] = task.Error
	}
	c.JSON(http.StatusOK, response)
}
