package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimasrn/smartcart/internal/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status     string    `json:"status"`
	TerminalID string    `json:"terminal_id"`
	Timestamp  time.Time `json:"timestamp"`
	Received   int64     `json:"received"`
}

type Handler struct {
	board      *Board
	terminalID string
}

func NewHandler(board *Board) *Handler {
	return &Handler{
		board:      board,
		terminalID: "TERMINAL_" + uuid.New().String()[:8],
	}
}

// ReceiveEvent stores an event pushed by the relay.
func (h *Handler) ReceiveEvent(c *gin.Context) {
	var ev model.RegisterEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}
	if ev.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
		return
	}

	if !h.board.Add(ev) {
		log.Debug().Str("event_id", ev.ID).Msg("Duplicate event ignored")
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	log.Info().
		Str("event_id", ev.ID).
		Str("type", ev.Type).
		Str("mobile", ev.Mobile).
		Str("name", ev.Name).
		Msg("Register event received")

	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

// ListEvents returns the board, newest first. ?limit= trims it.
func (h *Handler) ListEvents(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.board.List(limit))
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		TerminalID: h.terminalID,
		Timestamp:  time.Now(),
		Received:   h.board.Total(),
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/register/events", handler.ReceiveEvent)
		v1.GET("/register/events", handler.ListEvents)
		v1.GET("/health", handler.HealthCheck)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8081")
	capacity := getEnvInt("BOARD_CAPACITY", 200)

	log.Info().
		Str("port", port).
		Int("capacity", capacity).
		Msg("Starting cashier terminal")

	handler := NewHandler(NewBoard(capacity))
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
